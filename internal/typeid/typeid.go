package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixPlan     = "plan"
	PrefixSnapshot = "snap"
	PrefixOp       = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewPlanID() string     { return New(PrefixPlan) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewOpID() string       { return New(PrefixOp) }

// Validate checks that id parses and carries the expected prefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
