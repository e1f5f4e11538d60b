package document

import (
	"fmt"
	"slices"

	"github.com/inamate/planner/internal/geometry"
)

// Collection is an ordered arena of elements in which every element's ID is
// its index. Collections are never modified in place: Append, Replace and
// Remove return a new Collection, so a held Collection is a stable snapshot.
type Collection struct {
	elements []Element
}

// Empty returns a collection with no elements.
func Empty() Collection {
	return Collection{}
}

// FromRecords builds a collection from persisted records. IDs are reassigned
// from position so the result always satisfies the id-equals-index rule.
func FromRecords(records []Record) (Collection, error) {
	elements := make([]Element, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return Collection{}, err
		}
		elements[i] = NewElement(i, r.Kind, r.Coords)
	}
	return Collection{elements: elements}, nil
}

// Len returns the number of elements.
func (c Collection) Len() int {
	return len(c.elements)
}

// At returns the element with the given id.
func (c Collection) At(id int) (Element, bool) {
	if id < 0 || id >= len(c.elements) {
		return Element{}, false
	}
	return c.elements[id], true
}

// Elements returns a copy of the elements in order.
func (c Collection) Elements() []Element {
	return slices.Clone(c.elements)
}

// Records returns the persisted form of every element.
func (c Collection) Records() []Record {
	records := make([]Record, len(c.elements))
	for i, e := range c.elements {
		records[i] = e.Record()
	}
	return records
}

// HitTest returns the first element under p and how it was hit.
func (c Collection) HitTest(p geometry.Point) (Element, geometry.Hit, bool) {
	i, hit, ok := geometry.FindTopmostHit(p, c.elements)
	if !ok {
		return Element{}, geometry.Miss, false
	}
	return c.elements[i], hit, true
}

// Bounds returns the box covering every element, and false when empty.
func (c Collection) Bounds() (geometry.Rect, bool) {
	if len(c.elements) == 0 {
		return geometry.Rect{}, false
	}
	b := c.elements[0].Coords.Bounds()
	for _, e := range c.elements[1:] {
		b = b.Union(e.Coords.Bounds())
	}
	return b, true
}

// Append adds a new element at the end and returns it.
func (c Collection) Append(kind geometry.Kind, coords geometry.Coords) (Collection, Element) {
	e := NewElement(len(c.elements), kind, coords)
	next := make([]Element, len(c.elements), len(c.elements)+1)
	copy(next, c.elements)
	return Collection{elements: append(next, e)}, e
}

// Replace rebuilds the element in slot id with new coordinates.
func (c Collection) Replace(id int, coords geometry.Coords) (Collection, error) {
	old, ok := c.At(id)
	if !ok {
		return c, fmt.Errorf("replace element %d: %w", id, ErrNoElement)
	}
	next := slices.Clone(c.elements)
	next[id] = NewElement(id, old.Kind, coords)
	return Collection{elements: next}, nil
}

// Remove deletes the element in slot id and shifts every later element down
// one slot, updating its ID to match.
func (c Collection) Remove(id int) (Collection, error) {
	if _, ok := c.At(id); !ok {
		return c, fmt.Errorf("remove element %d: %w", id, ErrNoElement)
	}
	next := make([]Element, 0, len(c.elements)-1)
	next = append(next, c.elements[:id]...)
	for _, e := range c.elements[id+1:] {
		e.ID--
		next = append(next, e)
	}
	return Collection{elements: next}, nil
}
