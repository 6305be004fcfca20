package reference_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
	"github.com/cnsky2016/vespa/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNewImportedAttribute(t *testing.T) {
	f := newFixture(t)
	ref, _ := f.person.Attributes.Reference("company_id")
	ref.PopulateTargetLids(f.company.Store)

	src := reference.Source{
		Parent:         f.company.Parent(),
		Attribute:      "name",
		Field:          reference.ReferenceField{Name: "company_id", Target: "company"},
		Reference:      ref,
		ChildMetaStore: f.person.Store,
		Clock:          f.clock,
	}
	attr, err := reference.NewImportedAttribute("company_name", src)
	require.NoError(t, err)
	assert.Equal(t, "company_name", attr.Name())

	v, ok := attr.Value(personLid)
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "Acme", s)

	src.Attribute = "size"
	_, err = reference.NewImportedAttribute("company_size", src)
	assert.ErrorIs(t, err, reference.ErrNoSuchAttribute)

	src.Reference = nil
	_, err = reference.NewImportedAttribute("company_name", src)
	assert.Error(t, err)
}

func TestImportedAttributeNoValue(t *testing.T) {
	f := newFixture(t)
	lid := f.company.Put(t, 0xBD)
	f.person.Refer(t, "company_id", 4, 0xBD)

	repo := f.resolve(t, f.resolver(), f.person.Attributes, nil, 0)
	name, _ := repo.Get("name")
	assert.Equal(t, lid, name.ParentLid(4))
	assert.Equal(t, reference.StatusNoValue, name.Status(4))
}

func TestRepoInvalidateSource(t *testing.T) {
	f := newFixture(t)
	repo := f.resolve(t, f.resolver(), f.person.Attributes, nil, 0)

	assert.Zero(t, repo.InvalidateSource(nil))
	assert.Zero(t, repo.InvalidateSource(f.person.Attributes))
	assert.Equal(t, 2, repo.InvalidateSource(f.company.Attributes))
	assert.Zero(t, repo.InvalidateSource(f.company.Attributes), "invalidation happens once")

	for _, attr := range repo.All() {
		assert.False(t, attr.Valid())
	}
}

func TestRepoAllStopsEarly(t *testing.T) {
	f := newFixture(t)
	repo := f.resolve(t, f.resolver(), f.person.Attributes, nil, 0)

	var seen []string
	for name := range repo.All() {
		seen = append(seen, name)
		break
	}
	assert.Equal(t, []string{"name"}, seen)
	assert.Equal(t, 2, repo.Len())
}

func TestNewImportedAttributesRepoDropsDuplicates(t *testing.T) {
	f := newFixture(t)
	src := reference.Source{
		Parent:         f.company.Parent(),
		Attribute:      "name",
		Reference:      mustReference(t, f),
		ChildMetaStore: f.person.Store,
	}
	a, err := reference.NewImportedAttribute("n", src)
	require.NoError(t, err)
	src.Attribute = "revenue"
	b, err := reference.NewImportedAttribute("n", src)
	require.NoError(t, err)

	repo := reference.NewImportedAttributesRepo("person", f.person.Attributes, []*reference.ImportedAttribute{a, b}, reference.ResolveReport{})
	got, ok := repo.Get("n")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 1, repo.Len())
}

func TestConcurrentReadersAcrossTeardown(t *testing.T) {
	f := newFixture(t)
	rng := testutil.NewRNG(4711)

	company := f.company
	person := f.person
	company.AddAttribute(t, "label", metadata.FieldTypeString, true)

	var lids []model.LocalID
	for _, gid := range rng.GlobalIDs(64) {
		plid := company.Put(t, gid)
		company.Set(t, "label", plid, metadata.String(gid.String()), writeTime)
		clid := person.Put(t, gid)
		person.Refer(t, "company_id", clid, gid)
		lids = append(lids, clid)
	}

	r := f.resolver()
	repo := f.resolve(t, r, person.Attributes, nil, 0)
	label, ok := repo.Get("label")
	require.True(t, ok)

	oldParent := company.Derive()

	var torn atomic.Bool
	g := new(errgroup.Group)
	for w := 0; w < 8; w++ {
		seed := int64(w)
		g.Go(func() error {
			local := testutil.NewRNG(seed)
			for i := 0; i < 2000; i++ {
				lid := lids[local.Intn(len(lids))]
				after := torn.Load()
				v, ok := label.Value(lid)
				if after {
					assert.False(t, ok, "read after teardown")
					continue
				}
				if ok {
					gid, _ := person.Store.Gid(lid)
					s, _ := v.AsString()
					assert.Equal(t, gid.String(), s)
				}
			}
			return nil
		})
	}

	time.Sleep(time.Millisecond)
	r.Teardown(oldParent)
	torn.Store(true)

	require.NoError(t, g.Wait())
	assert.Equal(t, reference.StatusInvalidated, label.Status(lids[0]))
}

func mustReference(t *testing.T, f *fixture) *attribute.Reference {
	t.Helper()
	ref, ok := f.person.Attributes.Reference("company_id")
	require.True(t, ok)
	return ref
}
