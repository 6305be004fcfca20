package attribute

import (
	"sync"
	"time"

	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
)

type slot struct {
	value   metadata.Value
	written time.Time
	set     bool
}

// Vector is an in-memory single-value attribute.
//
// Reads take a shared lock for the duration of one slot copy, so a reader
// always sees a value and its write time from the same write.
type Vector struct {
	name string
	typ  metadata.FieldType

	mu    sync.RWMutex
	slots []slot // indexed by lid
}

var _ Accessor = (*Vector)(nil)

// NewVector creates an empty attribute vector.
func NewVector(name string, typ metadata.FieldType) *Vector {
	return &Vector{
		name: name,
		typ:  typ,
	}
}

// Name implements Accessor.
func (v *Vector) Name() string { return v.name }

// Type implements Accessor.
func (v *Vector) Type() metadata.FieldType { return v.typ }

// Set stores val for lid, recording at as the write time.
func (v *Vector) Set(lid model.LocalID, val metadata.Value, at time.Time) error {
	if !lid.Valid() {
		return ErrInvalidLid
	}
	if !v.typ.Accepts(val.Kind) {
		return &ErrTypeMismatch{Attribute: v.name, Expected: v.typ, Actual: val.Kind}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.growLocked(lid)
	v.slots[lid] = slot{value: val.Clone(), written: at, set: true}
	return nil
}

// Clear removes the value for lid. The clear counts as a write at time at.
func (v *Vector) Clear(lid model.LocalID, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if int(lid) >= len(v.slots) {
		return
	}
	v.slots[lid] = slot{written: at}
}

// Read implements Accessor.
func (v *Vector) Read(lid model.LocalID) (metadata.Value, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if int(lid) >= len(v.slots) {
		return metadata.Value{}, false
	}
	s := v.slots[lid]
	if !s.set {
		return metadata.Value{}, false
	}
	return s.value, true
}

// LastWriteTime implements Accessor.
func (v *Vector) LastWriteTime(lid model.LocalID) time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if int(lid) >= len(v.slots) {
		return time.Time{}
	}
	return v.slots[lid].written
}

// NumDocs returns the current lid limit of the vector.
func (v *Vector) NumDocs() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.slots)
}

// Shrink drops all slots at or above lidLimit. It is called after the
// identity store has been compacted.
func (v *Vector) Shrink(lidLimit model.LocalID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if int(lidLimit) < len(v.slots) {
		clear(v.slots[lidLimit:])
		v.slots = v.slots[:lidLimit]
	}
}

func (v *Vector) growLocked(lid model.LocalID) {
	if int(lid) < len(v.slots) {
		return
	}
	newLen := max(int(lid)+1, 2*len(v.slots))
	grown := make([]slot, int(lid)+1, newLen)
	copy(grown, v.slots)
	v.slots = grown
}
