package attribute

import (
	"errors"
	"fmt"

	"github.com/cnsky2016/vespa/metadata"
)

var (
	// ErrExists is returned when an attribute name is already used by the manager.
	ErrExists = errors.New("attribute already exists")

	// ErrNotFound is returned when an attribute does not exist.
	ErrNotFound = errors.New("attribute not found")

	// ErrInvalidConfig is returned for malformed attribute configs.
	ErrInvalidConfig = errors.New("invalid attribute config")

	// ErrInvalidLid is returned when writing to the reserved lid 0.
	ErrInvalidLid = errors.New("invalid lid")
)

// ErrTypeMismatch indicates a write of a value whose kind the attribute does not accept.
type ErrTypeMismatch struct {
	Attribute string
	Expected  metadata.FieldType
	Actual    metadata.Kind
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("attribute %q: type mismatch: expected %s, got %s", e.Attribute, e.Expected, e.Actual)
}
