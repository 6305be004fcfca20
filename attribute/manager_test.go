package attribute

import (
	"testing"
	"time"

	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerAttributes(t *testing.T) {
	m := NewManager("company")
	_, err := m.AddAttribute(Config{Name: "name", Type: metadata.FieldTypeString, Importable: true})
	require.NoError(t, err)
	_, err = m.AddAttribute(Config{Name: "revenue", Type: metadata.FieldTypeFloat})
	require.NoError(t, err)
	_, err = m.AddReference("owner_id")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "revenue"}, m.AttributeNames())
	assert.True(t, m.IsImportable("name"))
	assert.False(t, m.IsImportable("revenue"))
	assert.False(t, m.IsImportable("owner_id"), "references are never importable")
	assert.False(t, m.IsImportable("missing"))

	acc, ok := m.ReaderFor("name")
	require.True(t, ok)
	assert.Equal(t, "name", acc.Name())
	_, ok = m.ReaderFor("owner_id")
	assert.False(t, ok)

	ref, ok := m.Reference("owner_id")
	require.True(t, ok)
	assert.Equal(t, []*Reference{ref}, m.References())
}

func TestManagerRejectsBadConfig(t *testing.T) {
	m := NewManager("company")
	_, err := m.AddAttribute(Config{Name: "name", Type: metadata.FieldTypeString})
	require.NoError(t, err)

	_, err = m.AddAttribute(Config{Name: "name", Type: metadata.FieldTypeString})
	assert.ErrorIs(t, err, ErrExists)
	_, err = m.AddReference("name")
	assert.ErrorIs(t, err, ErrExists)
	_, err = m.AddAttribute(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = m.AddAttribute(Config{Name: "ref", Type: metadata.FieldTypeReference})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, m.Drop("missing"), ErrNotFound)
	assert.ErrorIs(t, m.SetImportable("missing", true), ErrNotFound)
}

func TestManagerDeriveSharesInstances(t *testing.T) {
	m := NewManager("company")
	name, err := m.AddAttribute(Config{Name: "name", Type: metadata.FieldTypeString, Importable: true})
	require.NoError(t, err)
	_, err = m.AddAttribute(Config{Name: "city", Type: metadata.FieldTypeString, Importable: true})
	require.NoError(t, err)

	next := m.Derive()
	require.NoError(t, next.Drop("city"))
	require.NoError(t, next.SetImportable("name", false))

	acc, ok := next.ReaderFor("name")
	require.True(t, ok)
	assert.Same(t, name, acc.(*Vector))

	// The source manager is unaffected.
	assert.True(t, m.IsImportable("name"))
	assert.Equal(t, []string{"city", "name"}, m.AttributeNames())
	assert.Equal(t, []string{"name"}, next.AttributeNames())
}

func TestManagerClearDoc(t *testing.T) {
	m := NewManager("person")
	name, err := m.AddAttribute(Config{Name: "name", Type: metadata.FieldTypeString})
	require.NoError(t, err)
	ref, err := m.AddReference("company_id")
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, name.Set(3, metadata.String("Ada"), at))
	require.NoError(t, name.Set(4, metadata.String("Bob"), at))
	require.NoError(t, ref.Update(3, 0xAC))
	require.NoError(t, ref.Update(4, 0xAC))

	m.ClearDoc(3, at.Add(time.Minute))

	_, ok := name.Read(3)
	assert.False(t, ok)
	assert.Equal(t, at.Add(time.Minute), name.LastWriteTime(3))
	_, ok = ref.TargetGid(3)
	assert.False(t, ok)
	assert.Equal(t, []model.LocalID{4}, ref.Referrers(0xAC))

	v, ok := name.Read(4)
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "Bob", s)

	// Lids beyond the attributes are ignored.
	m.ClearDoc(100, at)
}
