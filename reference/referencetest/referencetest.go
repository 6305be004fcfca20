// Package referencetest provides fixtures for tests of code built on the
// reference package.
//
// It is intended for use in tests only.
//
//	company := referencetest.NewCollection(t, "company")
//	company.AddAttribute(t, "name", metadata.FieldTypeString, true)
//	lid := company.Put(t, 0xAC)
//	company.Set(t, "name", lid, metadata.String("Acme"), time.Time{})
//
//	registry := referencetest.NewRegistry(company)
package referencetest

import (
	"sync"
	"testing"
	"time"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
	"github.com/stretchr/testify/require"
)

// Collection bundles the identity store and attribute manager of a
// document collection.
type Collection struct {
	DocType    model.DocType
	Store      *docmeta.Store
	Attributes *attribute.MemoryManager
}

// NewCollection creates an empty collection.
func NewCollection(t testing.TB, docType model.DocType) *Collection {
	t.Helper()
	return &Collection{
		DocType:    docType,
		Store:      docmeta.NewStore(docType),
		Attributes: attribute.NewManager(docType),
	}
}

// AddAttribute adds a value attribute to the current manager.
func (c *Collection) AddAttribute(t testing.TB, name string, typ metadata.FieldType, importable bool) *attribute.Vector {
	t.Helper()
	vec, err := c.Attributes.AddAttribute(attribute.Config{Name: name, Type: typ, Importable: importable})
	require.NoError(t, err)
	return vec
}

// AddReference adds a reference attribute to the current manager.
func (c *Collection) AddReference(t testing.TB, name string) *attribute.Reference {
	t.Helper()
	ref, err := c.Attributes.AddReference(name)
	require.NoError(t, err)
	return ref
}

// Put feeds a document and returns its lid.
func (c *Collection) Put(t testing.TB, gid model.GlobalID) model.LocalID {
	t.Helper()
	lid, err := c.Store.Put(gid)
	require.NoError(t, err)
	return lid
}

// Remove removes a document, clears its attributes in the current manager
// and returns the lid it had.
func (c *Collection) Remove(t testing.TB, gid model.GlobalID) model.LocalID {
	t.Helper()
	lid, ok := c.Store.Remove(gid)
	require.True(t, ok, "gid %s is not live", gid)
	c.Attributes.ClearDoc(lid, time.Time{})
	return lid
}

// Compact releases held lids of the identity store and shrinks the
// attributes of the current manager to the new lid limit.
func (c *Collection) Compact(t testing.TB) int {
	t.Helper()
	n := c.Store.Compact()
	c.Attributes.Shrink(c.Store.LidLimit())
	return n
}

// Set writes a value attribute of the current manager.
func (c *Collection) Set(t testing.TB, name string, lid model.LocalID, v metadata.Value, at time.Time) {
	t.Helper()
	vec, ok := c.Attributes.Vector(name)
	require.True(t, ok, "no attribute %q", name)
	require.NoError(t, vec.Set(lid, v, at))
}

// Refer points the child document lid at gid through reference field name.
func (c *Collection) Refer(t testing.TB, name string, lid model.LocalID, gid model.GlobalID) {
	t.Helper()
	ref, ok := c.Attributes.Reference(name)
	require.True(t, ok, "no reference %q", name)
	require.NoError(t, ref.Update(lid, gid))
}

// Derive replaces the current manager with one derived from it and returns
// the previous manager.
func (c *Collection) Derive() *attribute.MemoryManager {
	prev := c.Attributes
	c.Attributes = prev.Derive()
	return prev
}

// Parent returns the collection as seen by a parent registry.
func (c *Collection) Parent() reference.Parent {
	return reference.Parent{
		DocType:    c.DocType,
		Attributes: c.Attributes,
		MetaStore:  c.Store,
	}
}

// Registry is a mutable reference.ParentRegistry over collections.
// Lookups observe the collection's current manager.
type Registry struct {
	mu      sync.RWMutex
	parents map[model.DocType]*Collection
}

var _ reference.ParentRegistry = (*Registry)(nil)

// NewRegistry creates a registry holding cols.
func NewRegistry(cols ...*Collection) *Registry {
	r := &Registry{parents: make(map[model.DocType]*Collection)}
	for _, c := range cols {
		r.parents[c.DocType] = c
	}
	return r
}

// Add registers c, replacing any collection of the same type.
func (r *Registry) Add(c *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parents[c.DocType] = c
}

// Remove unregisters docType.
func (r *Registry) Remove(docType model.DocType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.parents, docType)
}

// Lookup implements reference.ParentRegistry.
func (r *Registry) Lookup(docType model.DocType) (reference.Parent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.parents[docType]
	if !ok {
		return reference.Parent{}, false
	}
	return c.Parent(), true
}

// ResolveCall records one call to Resolver.Resolve.
type ResolveCall struct {
	NewAttrMgr      attribute.Manager
	OldAttrMgr      attribute.Manager
	MetaStore       docmeta.Reader
	VisibilityDelay time.Duration
}

// Resolver is a reference.Resolver that records its calls and resolves to an
// empty repo, or to Err when set.
type Resolver struct {
	DocType model.DocType
	Err     error

	mu        sync.Mutex
	resolves  []ResolveCall
	teardowns []attribute.Manager
}

var _ reference.Resolver = (*Resolver)(nil)

// NewResolver creates a recording resolver for docType.
func NewResolver(docType model.DocType) *Resolver {
	return &Resolver{DocType: docType}
}

// Resolve implements reference.Resolver.
func (r *Resolver) Resolve(newAttrMgr, oldAttrMgr attribute.Manager, metaStore docmeta.Reader, visibilityDelay time.Duration) (*reference.ImportedAttributesRepo, error) {
	r.mu.Lock()
	r.resolves = append(r.resolves, ResolveCall{
		NewAttrMgr:      newAttrMgr,
		OldAttrMgr:      oldAttrMgr,
		MetaStore:       metaStore,
		VisibilityDelay: visibilityDelay,
	})
	r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	return reference.NewImportedAttributesRepo(r.DocType, newAttrMgr, nil, reference.ResolveReport{}), nil
}

// Teardown implements reference.Resolver.
func (r *Resolver) Teardown(oldAttrMgr attribute.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardowns = append(r.teardowns, oldAttrMgr)
}

// Resolves returns the recorded Resolve calls.
func (r *Resolver) Resolves() []ResolveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ResolveCall(nil), r.resolves...)
}

// Teardowns returns the managers passed to Teardown, in call order.
func (r *Resolver) Teardowns() []attribute.Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]attribute.Manager(nil), r.teardowns...)
}
