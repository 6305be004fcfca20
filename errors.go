package vespa

import (
	"errors"
	"fmt"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
)

var (
	// ErrNotFound is returned when a collection, attribute or document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when using a DocumentDB after it was removed from its registry.
	ErrClosed = errors.New("document db closed")

	// ErrExists is returned when creating a collection or attribute that already exists.
	ErrExists = errors.New("already exists")

	// ErrPrecondition is returned when a reconfiguration violates the resolver contract.
	ErrPrecondition = errors.New("precondition violated")
)

// ErrDocTypeMismatch indicates an attribute manager handed to a DocumentDB
// of another collection.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDocTypeMismatch struct {
	Expected model.DocType
	Actual   model.DocType
	cause    error
}

func (e *ErrDocTypeMismatch) Error() string {
	return fmt.Sprintf("doc type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *ErrDocTypeMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, attribute.ErrNotFound) || errors.Is(err, docmeta.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, attribute.ErrExists) {
		return fmt.Errorf("%w: %w", ErrExists, err)
	}

	var pe *reference.PreconditionError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if errors.Is(err, reference.ErrPrecondition) {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	return err
}
