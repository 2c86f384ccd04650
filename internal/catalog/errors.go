package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrInvalidSlug = errors.New("catalog: invalid slug")
)

// ConflictError reports a uniqueness violation on Field.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("catalog: %s with %s %q already exists", e.Entity, e.Field, e.Value)
}

func (e *ConflictError) Code() string { return "CONFLICT" }

// conflictField maps a constraint such as categories_slug_key to "slug".
func conflictField(constraint string) string {
	c := strings.TrimSuffix(constraint, "_key")
	if i := strings.LastIndex(c, "_"); i >= 0 {
		return c[i+1:]
	}
	return c
}
