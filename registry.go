package vespa

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
	"golang.org/x/sync/errgroup"
)

// Registry owns the document collections of one node and acts as the parent
// registry for their reference resolvers.
type Registry struct {
	opts []Option

	mu  sync.RWMutex
	dbs map[model.DocType]*DocumentDB
}

var _ reference.ParentRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry. opts apply to every collection.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts: opts,
		dbs:  make(map[model.DocType]*DocumentDB),
	}
}

// Create adds a collection with the initial attribute manager mgr and
// resolves its imports. Existing children that reference docType are
// re-resolved so that they pick up the new parent.
func (r *Registry) Create(ctx context.Context, docType model.DocType, mgr attribute.Manager, opts ...Option) (*DocumentDB, error) {
	if _, ok := r.get(docType); ok {
		return nil, fmt.Errorf("%w: collection %s", ErrExists, docType)
	}

	o := applyOptions(append(slices.Clone(r.opts), opts...))
	db, err := newDocumentDB(ctx, r, docType, mgr, o)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.dbs[docType]; ok {
		r.mu.Unlock()
		_, _ = db.close(ctx)
		return nil, fmt.Errorf("%w: collection %s", ErrExists, docType)
	}
	r.dbs[docType] = db
	r.mu.Unlock()

	o.logger.InfoContext(ctx, "collection created",
		"doc_type", docType.String(),
		"reference_fields", len(db.fields),
		"imports", db.cur.Load().repo.Len(),
	)

	if err := r.rebindChildren(ctx, docType, nil); err != nil {
		return db, err
	}
	return db, nil
}

// Get returns the collection with the given doc type.
func (r *Registry) Get(docType model.DocType) (*DocumentDB, error) {
	db, ok := r.get(docType)
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, docType)
	}
	return db, nil
}

func (r *Registry) get(docType model.DocType) (*DocumentDB, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db, ok := r.dbs[docType]
	return db, ok
}

// Lookup implements reference.ParentRegistry. It exposes the published
// attribute manager of the collection.
func (r *Registry) Lookup(docType model.DocType) (reference.Parent, bool) {
	db, ok := r.get(docType)
	if !ok || db.closed.Load() {
		return reference.Parent{}, false
	}
	return reference.Parent{
		DocType:    docType,
		Attributes: db.cur.Load().mgr,
		MetaStore:  db.store,
	}, true
}

// DocTypes returns the doc types of all collections, sorted.
func (r *Registry) DocTypes() []model.DocType {
	r.mu.RLock()
	out := make([]model.DocType, 0, len(r.dbs))
	for dt := range r.dbs {
		out = append(out, dt)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Remove drops a collection. Its readers are drained and its imports
// invalidated, then every child importing from it is re-resolved and the
// collection's last attribute manager is torn down in each child.
//
// The collection stops serving as a parent immediately. If ctx ends before
// its readers drain, the children are still re-resolved without it, the
// collection stays registered and Remove may be retried to finish the
// teardown. Create of the same doc type fails with ErrExists until then.
func (r *Registry) Remove(ctx context.Context, docType model.DocType) error {
	db, ok := r.get(docType)
	if !ok {
		return fmt.Errorf("%w: collection %s", ErrNotFound, docType)
	}

	last, err := db.close(ctx)
	if errors.Is(err, ErrClosed) {
		return fmt.Errorf("%w: collection %s", ErrNotFound, docType)
	}
	if err != nil {
		db.logger.WarnContext(ctx, "collection removal incomplete", "error", err)
		return errors.Join(err, r.rebindChildren(ctx, docType, nil))
	}

	r.mu.Lock()
	if r.dbs[docType] == db {
		delete(r.dbs, docType)
	}
	r.mu.Unlock()

	db.logger.InfoContext(ctx, "collection removed")
	return r.rebindChildren(ctx, docType, last)
}

// dependents returns the collections declaring a reference field into
// parent, sorted by doc type.
func (r *Registry) dependents(parent model.DocType) []*DocumentDB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*DocumentDB
	for dt, db := range r.dbs {
		if dt == parent {
			continue
		}
		if slices.ContainsFunc(db.fields, func(f reference.ReferenceField) bool { return f.Target == parent }) {
			out = append(out, db)
		}
	}
	slices.SortFunc(out, func(a, b *DocumentDB) int {
		return cmp.Compare(a.docType, b.docType)
	})
	return out
}

func (r *Registry) rebindChildren(ctx context.Context, parent model.DocType, oldParent attribute.Manager) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, child := range r.dependents(parent) {
		g.Go(func() error {
			return child.rebind(gctx, oldParent)
		})
	}
	return g.Wait()
}
