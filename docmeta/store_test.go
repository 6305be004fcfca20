package docmeta

import (
	"testing"

	"github.com/cnsky2016/vespa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	puts    map[model.GlobalID]model.LocalID
	removes []model.GlobalID
}

func newRecordingListener() *recordingListener {
	return &recordingListener{puts: make(map[model.GlobalID]model.LocalID)}
}

func (r *recordingListener) NotifyPutDone(gid model.GlobalID, lid model.LocalID) {
	r.puts[gid] = lid
}

func (r *recordingListener) NotifyRemove(gid model.GlobalID) {
	r.removes = append(r.removes, gid)
}

func TestStorePutAssignsDenseLids(t *testing.T) {
	s := NewStore("company")

	lid1, err := s.Put(100)
	require.NoError(t, err)
	lid2, err := s.Put(200)
	require.NoError(t, err)

	assert.Equal(t, model.LocalID(1), lid1)
	assert.Equal(t, model.LocalID(2), lid2)
	assert.True(t, s.IsLive(lid1))
	assert.True(t, s.IsLive(lid2))
	assert.False(t, s.IsLive(model.InvalidLocalID))
	assert.False(t, s.IsLive(3))
	assert.Equal(t, uint64(2), s.NumActive())
	assert.Equal(t, model.DocType("company"), s.DocType())

	again, err := s.Put(100)
	require.NoError(t, err)
	assert.Equal(t, lid1, again, "re-putting a live gid keeps its lid")

	gid, ok := s.Gid(lid2)
	require.True(t, ok)
	assert.Equal(t, model.GlobalID(200), gid)
}

func TestStoreRemoveHoldsLidUntilCompact(t *testing.T) {
	s := NewStore("company")
	for gid := model.GlobalID(1); gid <= 3; gid++ {
		_, err := s.Put(gid)
		require.NoError(t, err)
	}

	lid, ok := s.Remove(2)
	require.True(t, ok)
	assert.Equal(t, model.LocalID(2), lid)
	assert.False(t, s.IsLive(lid))
	_, ok = s.Lid(2)
	assert.False(t, ok)
	_, ok = s.Gid(lid)
	assert.False(t, ok)

	// Held lids are not reused before compaction.
	next, err := s.Put(4)
	require.NoError(t, err)
	assert.Equal(t, model.LocalID(4), next)

	assert.Equal(t, 1, s.Compact())

	reused, err := s.Put(5)
	require.NoError(t, err)
	assert.Equal(t, model.LocalID(2), reused, "compacted lid is reused")

	_, ok = s.Remove(99)
	assert.False(t, ok)
}

func TestStoreCompactTrimsTail(t *testing.T) {
	s := NewStore("company")
	for gid := model.GlobalID(1); gid <= 3; gid++ {
		_, err := s.Put(gid)
		require.NoError(t, err)
	}
	assert.Equal(t, model.LocalID(4), s.LidLimit())

	s.Remove(3)
	s.Remove(2)
	assert.Equal(t, 2, s.Compact())
	assert.Equal(t, model.LocalID(2), s.LidLimit())

	lid, err := s.Put(10)
	require.NoError(t, err)
	assert.Equal(t, model.LocalID(2), lid)
}

func TestStoreListeners(t *testing.T) {
	s := NewStore("company")
	l := newRecordingListener()
	cancel := s.Subscribe(l)
	assert.Equal(t, 1, s.NumListeners())

	lid, err := s.Put(7)
	require.NoError(t, err)
	assert.Equal(t, lid, l.puts[7])

	s.Remove(7)
	assert.Equal(t, []model.GlobalID{7}, l.removes)

	cancel()
	cancel()
	assert.Equal(t, 0, s.NumListeners())

	_, err = s.Put(8)
	require.NoError(t, err)
	_, seen := l.puts[8]
	assert.False(t, seen, "cancelled listener is not notified")
}

func TestStoreLiveIteration(t *testing.T) {
	s := NewStore("company")
	for gid := model.GlobalID(10); gid < 14; gid++ {
		_, err := s.Put(gid)
		require.NoError(t, err)
	}
	s.Remove(11)

	got := make(map[model.LocalID]model.GlobalID)
	for lid, gid := range s.Live() {
		got[lid] = gid
	}
	assert.Equal(t, map[model.LocalID]model.GlobalID{1: 10, 3: 12, 4: 13}, got)
}
