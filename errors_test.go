package vespa

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/reference"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"attribute not found", fmt.Errorf("drop: %w", attribute.ErrNotFound), ErrNotFound},
		{"docmeta not found", docmeta.ErrNotFound, ErrNotFound},
		{"attribute exists", attribute.ErrExists, ErrExists},
		{"precondition", &reference.PreconditionError{DocType: "person", Reason: "nil"}, ErrPrecondition},
		{"wrapped precondition", fmt.Errorf("x: %w", reference.ErrPrecondition), ErrPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "the original error stays reachable")
		})
	}

	assert.NoError(t, translateError(nil))
	assert.Same(t, other, translateError(other))
}

func TestErrDocTypeMismatch(t *testing.T) {
	cause := errors.New("cause")
	err := &ErrDocTypeMismatch{Expected: "person", Actual: "company", cause: cause}

	assert.EqualError(t, err, "doc type mismatch: expected person, got company")
	assert.ErrorIs(t, err, cause)
}
