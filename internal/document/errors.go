package document

import "errors"

// ErrNoElement is returned when an element id does not name a slot.
var ErrNoElement = errors.New("no such element")
