package docmeta

import (
	"iter"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cnsky2016/vespa/model"
)

// GidChangeListener observes gid to lid assignments of a Store.
type GidChangeListener interface {
	// NotifyPutDone is called after gid has been assigned lid.
	NotifyPutDone(gid model.GlobalID, lid model.LocalID)
	// NotifyRemove is called after gid has been removed.
	NotifyRemove(gid model.GlobalID)
}

// Reader is the read side of an identity store.
type Reader interface {
	DocType() model.DocType
	IsLive(lid model.LocalID) bool
	Lid(gid model.GlobalID) (model.LocalID, bool)
}

// Notifier publishes gid to lid changes.
type Notifier interface {
	// Subscribe registers l. The returned cancel func is idempotent.
	Subscribe(l GidChangeListener) (cancel func())
}

// MetaStore is an identity store that also publishes its changes.
type MetaStore interface {
	Reader
	Notifier
}

// Store is an in-memory identity store.
//
// Reads are safe for concurrent use. Put, Remove and Compact are expected to
// be issued from the collection's single write path.
type Store struct {
	docType model.DocType

	mu       sync.RWMutex
	gidToLid map[model.GlobalID]model.LocalID
	lidToGid []model.GlobalID // indexed by lid; slot 0 is reserved
	live     *roaring.Bitmap
	held     *roaring.Bitmap // removed, waiting for compaction
	free     *roaring.Bitmap // compacted, ready for reuse

	listenersMu sync.Mutex
	listeners   map[uint64]GidChangeListener
	nextSubID   uint64
}

var _ MetaStore = (*Store)(nil)

// NewStore creates an empty identity store for docType.
func NewStore(docType model.DocType) *Store {
	return &Store{
		docType:   docType,
		gidToLid:  make(map[model.GlobalID]model.LocalID),
		lidToGid:  make([]model.GlobalID, 1),
		live:      roaring.New(),
		held:      roaring.New(),
		free:      roaring.New(),
		listeners: make(map[uint64]GidChangeListener),
	}
}

// DocType returns the collection this store belongs to.
func (s *Store) DocType() model.DocType { return s.docType }

// Put assigns a lid to gid. Putting a gid that is already live returns its
// current lid. Listeners are notified in both cases.
func (s *Store) Put(gid model.GlobalID) (model.LocalID, error) {
	s.mu.Lock()
	lid, ok := s.gidToLid[gid]
	if !ok {
		var err error
		lid, err = s.allocLocked()
		if err != nil {
			s.mu.Unlock()
			return model.InvalidLocalID, err
		}
		s.gidToLid[gid] = lid
		s.lidToGid[lid] = gid
		s.live.Add(uint32(lid))
	}
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		l.NotifyPutDone(gid, lid)
	}
	return lid, nil
}

func (s *Store) allocLocked() (model.LocalID, error) {
	if !s.free.IsEmpty() {
		lid := s.free.Minimum()
		s.free.Remove(lid)
		return model.LocalID(lid), nil
	}
	next := len(s.lidToGid)
	if next > math.MaxUint32 {
		return model.InvalidLocalID, ErrLidSpaceExhausted
	}
	s.lidToGid = append(s.lidToGid, 0)
	return model.LocalID(next), nil
}

// Remove marks the document with gid as not live. The lid is held until the
// next Compact and is not reused before that.
func (s *Store) Remove(gid model.GlobalID) (model.LocalID, bool) {
	s.mu.Lock()
	lid, ok := s.gidToLid[gid]
	if !ok {
		s.mu.Unlock()
		return model.InvalidLocalID, false
	}
	delete(s.gidToLid, gid)
	s.lidToGid[lid] = 0
	s.live.Remove(uint32(lid))
	s.held.Add(uint32(lid))
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		l.NotifyRemove(gid)
	}
	return lid, true
}

// Compact releases all held lids for reuse and trims trailing free lids.
// It returns the number of lids released.
func (s *Store) Compact() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := int(s.held.GetCardinality())
	s.free.Or(s.held)
	s.held.Clear()

	// Shrink the lid space when the highest lids are all free.
	for len(s.lidToGid) > 1 {
		last := uint32(len(s.lidToGid) - 1)
		if !s.free.Contains(last) {
			break
		}
		s.free.Remove(last)
		s.lidToGid = s.lidToGid[:last]
	}
	return released
}

// IsLive reports whether lid currently addresses a document.
func (s *Store) IsLive(lid model.LocalID) bool {
	if !lid.Valid() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Contains(uint32(lid))
}

// Lid returns the lid assigned to gid.
func (s *Store) Lid(gid model.GlobalID) (model.LocalID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lid, ok := s.gidToLid[gid]
	return lid, ok
}

// Gid returns the gid of a live lid.
func (s *Store) Gid(lid model.LocalID) (model.GlobalID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live.Contains(uint32(lid)) {
		return 0, false
	}
	return s.lidToGid[lid], true
}

// NumActive returns the number of live documents.
func (s *Store) NumActive() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.GetCardinality()
}

// LidLimit returns one past the highest lid ever handed out and not yet trimmed.
func (s *Store) LidLimit() model.LocalID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.LocalID(len(s.lidToGid))
}

// Live iterates over the live lids and their gids as of the call.
func (s *Store) Live() iter.Seq2[model.LocalID, model.GlobalID] {
	s.mu.RLock()
	lids := s.live.ToArray()
	gids := make([]model.GlobalID, len(lids))
	for i, lid := range lids {
		gids[i] = s.lidToGid[lid]
	}
	s.mu.RUnlock()

	return func(yield func(model.LocalID, model.GlobalID) bool) {
		for i, lid := range lids {
			if !yield(model.LocalID(lid), gids[i]) {
				return
			}
		}
	}
}

// Subscribe registers l for gid change notifications.
func (s *Store) Subscribe(l GidChangeListener) (cancel func()) {
	s.listenersMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// NumListeners returns the number of registered listeners.
func (s *Store) NumListeners() int {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return len(s.listeners)
}

func (s *Store) snapshotListeners() []GidChangeListener {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if len(s.listeners) == 0 {
		return nil
	}
	out := make([]GidChangeListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}
