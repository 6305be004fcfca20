package attribute

import (
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
)

// GidMapper resolves a gid to the lid it currently has in the target collection.
type GidMapper interface {
	Lid(gid model.GlobalID) (model.LocalID, bool)
}

type referenceTarget struct {
	lid       model.LocalID // InvalidLocalID while unresolved
	referrers *roaring.Bitmap
}

// Reference is the attribute behind a reference field.
//
// For each child lid it stores the gid of the referenced document. Targets are
// shared by all child lids referring to the same gid; each target caches the
// lid the gid has in the parent collection and the set of referring child lids.
//
// Reference implements docmeta.GidChangeListener so that it can follow lid
// reassignment in the parent collection.
type Reference struct {
	name string

	mu      sync.RWMutex
	gids    []model.GlobalID // indexed by child lid; 0 means unset
	targets map[model.GlobalID]*referenceTarget
	mapper  GidMapper
}

// NewReference creates an empty reference attribute.
func NewReference(name string) *Reference {
	return &Reference{
		name:    name,
		targets: make(map[model.GlobalID]*referenceTarget),
	}
}

// Name returns the reference field name.
func (r *Reference) Name() string { return r.name }

// Type returns metadata.FieldTypeReference.
func (r *Reference) Type() metadata.FieldType { return metadata.FieldTypeReference }

// Update points childLid at the document with gid. If a gid mapper is
// connected and the target is not yet known, its lid is resolved immediately.
func (r *Reference) Update(childLid model.LocalID, gid model.GlobalID) error {
	if !childLid.Valid() {
		return ErrInvalidLid
	}
	if gid == 0 {
		r.Clear(childLid)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if int(childLid) >= len(r.gids) {
		grown := make([]model.GlobalID, int(childLid)+1, max(int(childLid)+1, 2*len(r.gids)))
		copy(grown, r.gids)
		r.gids = grown
	}
	if prev := r.gids[childLid]; prev != 0 {
		if prev == gid {
			return nil
		}
		r.unlinkLocked(prev, childLid)
	}
	r.gids[childLid] = gid

	t := r.targets[gid]
	if t == nil {
		t = &referenceTarget{referrers: roaring.New()}
		if r.mapper != nil {
			if lid, ok := r.mapper.Lid(gid); ok {
				t.lid = lid
			}
		}
		r.targets[gid] = t
	}
	t.referrers.Add(uint32(childLid))
	return nil
}

// Clear unsets the reference of childLid.
func (r *Reference) Clear(childLid model.LocalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(childLid) >= len(r.gids) {
		return
	}
	if prev := r.gids[childLid]; prev != 0 {
		r.unlinkLocked(prev, childLid)
		r.gids[childLid] = 0
	}
}

func (r *Reference) unlinkLocked(gid model.GlobalID, childLid model.LocalID) {
	t := r.targets[gid]
	if t == nil {
		return
	}
	t.referrers.Remove(uint32(childLid))
	if t.referrers.IsEmpty() {
		delete(r.targets, gid)
	}
}

// TargetGid returns the gid childLid refers to.
func (r *Reference) TargetGid(childLid model.LocalID) (model.GlobalID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(childLid) >= len(r.gids) {
		return 0, false
	}
	gid := r.gids[childLid]
	return gid, gid != 0
}

// TargetLid returns the parent lid childLid refers to, or InvalidLocalID when
// the reference is unset or its target is not present in the parent.
func (r *Reference) TargetLid(childLid model.LocalID) model.LocalID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(childLid) >= len(r.gids) {
		return model.InvalidLocalID
	}
	gid := r.gids[childLid]
	if gid == 0 {
		return model.InvalidLocalID
	}
	if t := r.targets[gid]; t != nil {
		return t.lid
	}
	return model.InvalidLocalID
}

// Referrers returns the child lids referring to gid, in ascending order.
func (r *Reference) Referrers(gid model.GlobalID) []model.LocalID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := r.targets[gid]
	if t == nil {
		return nil
	}
	out := make([]model.LocalID, 0, t.referrers.GetCardinality())
	it := t.referrers.Iterator()
	for it.HasNext() {
		out = append(out, model.LocalID(it.Next()))
	}
	return out
}

// TargetGids returns every gid currently referred to, sorted.
func (r *Reference) TargetGids() []model.GlobalID {
	r.mu.RLock()
	out := make([]model.GlobalID, 0, len(r.targets))
	for gid := range r.targets {
		out = append(out, gid)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

// PopulateTargetLids connects the reference to mapper and re-resolves the
// parent lid of every known target.
func (r *Reference) PopulateTargetLids(mapper GidMapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapper = mapper
	for gid, t := range r.targets {
		t.lid = model.InvalidLocalID
		if mapper == nil {
			continue
		}
		if lid, ok := mapper.Lid(gid); ok {
			t.lid = lid
		}
	}
}

// NotifyPutDone records that gid now has lid in the parent collection.
func (r *Reference) NotifyPutDone(gid model.GlobalID, lid model.LocalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.targets[gid]; t != nil {
		t.lid = lid
	}
}

// NotifyRemove records that gid no longer exists in the parent collection.
func (r *Reference) NotifyRemove(gid model.GlobalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.targets[gid]; t != nil {
		t.lid = model.InvalidLocalID
	}
}

// Shrink drops references of child lids at or above lidLimit.
func (r *Reference) Shrink(lidLimit model.LocalID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for lid := int(lidLimit); lid < len(r.gids); lid++ {
		if gid := r.gids[lid]; gid != 0 {
			r.unlinkLocked(gid, model.LocalID(lid))
		}
	}
	if int(lidLimit) < len(r.gids) {
		r.gids = r.gids[:lidLimit]
	}
}
