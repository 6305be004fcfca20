package vespa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochDrainsAfterLastReference(t *testing.T) {
	e := newEpoch(1, nil, nil)

	require.True(t, e.TryIncRef())
	e.DecRef() // publication

	select {
	case <-e.drained:
		t.Fatal("drained while a reader holds the epoch")
	default:
	}

	e.DecRef()
	<-e.drained
	assert.False(t, e.TryIncRef(), "a drained epoch cannot be pinned again")
}
