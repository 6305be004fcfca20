package reference

import (
	"errors"
	"fmt"

	"github.com/cnsky2016/vespa/model"
)

var (
	// ErrPrecondition is returned when Resolve is called with arguments that
	// violate its contract (nil or mismatched managers or identity stores).
	ErrPrecondition = errors.New("precondition violated")

	// ErrNoSuchAttribute is returned when an import refers to an attribute the
	// parent does not have.
	ErrNoSuchAttribute = errors.New("no such attribute")
)

// PreconditionError describes a contract violation detected by Resolve.
//
// It unwraps to ErrPrecondition.
type PreconditionError struct {
	DocType model.DocType
	Reason  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %s", e.DocType, ErrPrecondition, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

func preconditionf(docType model.DocType, format string, args ...any) error {
	return &PreconditionError{DocType: docType, Reason: fmt.Sprintf(format, args...)}
}
