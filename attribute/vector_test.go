package attribute

import (
	"testing"
	"time"

	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorSetRead(t *testing.T) {
	v := NewVector("company_name", metadata.FieldTypeString)
	t0 := time.Unix(1000, 0)

	require.NoError(t, v.Set(7, metadata.String("Acme"), t0))

	got, ok := v.Read(7)
	require.True(t, ok)
	assert.Equal(t, "Acme", got.StringValue())
	assert.Equal(t, t0, v.LastWriteTime(7))

	_, ok = v.Read(3)
	assert.False(t, ok, "lid below limit without value")
	_, ok = v.Read(100)
	assert.False(t, ok, "lid beyond limit")
	assert.True(t, v.LastWriteTime(100).IsZero())
}

func TestVectorRejectsBadWrites(t *testing.T) {
	v := NewVector("employees", metadata.FieldTypeInt)

	err := v.Set(1, metadata.String("many"), time.Now())
	var tm *ErrTypeMismatch
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "employees", tm.Attribute)
	assert.Equal(t, metadata.KindString, tm.Actual)

	assert.ErrorIs(t, v.Set(model.InvalidLocalID, metadata.Int(1), time.Now()), ErrInvalidLid)
}

func TestVectorClearCountsAsWrite(t *testing.T) {
	v := NewVector("rank", metadata.FieldTypeFloat)
	t0 := time.Unix(10, 0)
	t1 := time.Unix(20, 0)

	require.NoError(t, v.Set(2, metadata.Float(0.5), t0))
	v.Clear(2, t1)

	_, ok := v.Read(2)
	assert.False(t, ok)
	assert.Equal(t, t1, v.LastWriteTime(2))
}

func TestVectorShrink(t *testing.T) {
	v := NewVector("rank", metadata.FieldTypeInt)
	for lid := model.LocalID(1); lid <= 5; lid++ {
		require.NoError(t, v.Set(lid, metadata.Int(int64(lid)), time.Now()))
	}
	assert.Equal(t, 6, v.NumDocs())

	v.Shrink(3)
	assert.Equal(t, 3, v.NumDocs())
	_, ok := v.Read(4)
	assert.False(t, ok)
	got, ok := v.Read(2)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.I64)
}
