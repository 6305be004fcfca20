package vespa

import (
	"sync/atomic"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/reference"
)

// epoch is the published state of a DocumentDB: an attribute manager and the
// imports resolved for it. It is immutable once published.
//
// The publication itself holds one reference. Readers add one each through
// TryIncRef, and drained is closed when the count drops to zero.
type epoch struct {
	refs    int64
	seq     uint64
	mgr     attribute.Manager
	repo    *reference.ImportedAttributesRepo
	drained chan struct{}
}

func newEpoch(seq uint64, mgr attribute.Manager, repo *reference.ImportedAttributesRepo) *epoch {
	return &epoch{
		refs:    1,
		seq:     seq,
		mgr:     mgr,
		repo:    repo,
		drained: make(chan struct{}),
	}
}

// TryIncRef attempts to increment the reference count.
// Returns true if successful, false if the epoch is already retired (refs == 0).
func (e *epoch) TryIncRef() bool {
	for {
		refs := atomic.LoadInt64(&e.refs)
		if refs <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&e.refs, refs, refs+1) {
			return true
		}
	}
}

func (e *epoch) DecRef() {
	if atomic.AddInt64(&e.refs, -1) == 0 {
		close(e.drained)
	}
}
