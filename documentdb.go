package vespa

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/model"
	"github.com/cnsky2016/vespa/reference"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// shrinker is implemented by attribute managers that can release storage of
// lids above the lid limit after compaction.
type shrinker interface {
	Shrink(lidLimit model.LocalID)
}

// docClearer is implemented by attribute managers that can reset every
// attribute of a removed document.
type docClearer interface {
	ClearDoc(lid model.LocalID, at time.Time)
}

// DocumentDB is one document collection: its identity store, its current
// attribute manager and the attributes it imports from parent collections.
//
// Readers use Acquire to pin the current epoch. Reconfigure swaps the
// attribute manager with the protocol resolve, publish, drain readers of the
// previous epoch, tear down the previous manager, and finally re-resolve all
// child collections that import from this one.
type DocumentDB struct {
	docType  model.DocType
	registry *Registry
	store    *docmeta.Store
	resolver reference.Resolver
	fields   []reference.ReferenceField
	opts     options
	logger   *Logger
	warn     rate.Sometimes

	writeMu sync.Mutex // serializes Put, Remove and Compact

	reconfMu sync.Mutex // serializes Reconfigure, rebinds and close
	seq      uint64
	shut     bool // close completed; guarded by reconfMu
	cur      atomic.Pointer[epoch]
	closed   atomic.Bool
}

func newDocumentDB(ctx context.Context, r *Registry, docType model.DocType, mgr attribute.Manager, opts options) (*DocumentDB, error) {
	if err := checkManager(docType, mgr); err != nil {
		return nil, err
	}

	logger := opts.logger.WithDocType(docType)
	db := &DocumentDB{
		docType:  docType,
		registry: r,
		store:    docmeta.NewStore(docType),
		fields:   append([]reference.ReferenceField(nil), opts.fields...),
		opts:     opts,
		logger:   logger,
		warn:     rate.Sometimes{First: 1, Interval: opts.warnInterval},
	}
	db.resolver = opts.resolverFactory(docType, r, db.fields,
		reference.WithLogger(logger.Logger),
		reference.WithMetricsObserver(opts.metrics),
		reference.WithClock(opts.clock),
		reference.WithImportedFields(opts.imported...),
	)

	repo, err := db.resolve(ctx, mgr, nil)
	if err != nil {
		return nil, err
	}
	db.reconfMu.Lock()
	db.publishLocked(mgr, repo)
	db.reconfMu.Unlock()
	return db, nil
}

// DocType returns the collection's doc type.
func (db *DocumentDB) DocType() model.DocType { return db.docType }

// MetaStore returns the collection's identity store. Documents are fed and
// removed through it.
func (db *DocumentDB) MetaStore() *docmeta.Store { return db.store }

// Fields returns the declared reference fields.
func (db *DocumentDB) Fields() []reference.ReferenceField {
	return append([]reference.ReferenceField(nil), db.fields...)
}

// Attributes returns the currently published attribute manager.
func (db *DocumentDB) Attributes() attribute.Manager { return db.cur.Load().mgr }

// Epoch returns the sequence number of the published epoch. It increases
// with every publish.
func (db *DocumentDB) Epoch() uint64 { return db.cur.Load().seq }

// Report returns how the imports of the published epoch were resolved.
func (db *DocumentDB) Report() reference.ResolveReport { return db.cur.Load().repo.Report() }

// Put feeds the document with gid and returns its lid.
//
// Put, Remove and Compact are serialized, so gid change listeners observe
// the changes of one collection in the order they were applied.
func (db *DocumentDB) Put(gid model.GlobalID) (model.LocalID, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if db.closed.Load() {
		return model.InvalidLocalID, ErrClosed
	}
	lid, err := db.store.Put(gid)
	return lid, translateError(err)
}

// Remove removes the document with gid and returns the lid it had. Every
// attribute of the published manager is cleared at that lid, including the
// reference attributes, so a document reusing the lid after Compact starts
// empty.
func (db *DocumentDB) Remove(gid model.GlobalID) (model.LocalID, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if db.closed.Load() {
		return model.InvalidLocalID, ErrClosed
	}
	lid, ok := db.store.Remove(gid)
	if !ok {
		return model.InvalidLocalID, fmt.Errorf("%w: gid %s", ErrNotFound, gid)
	}
	if c, ok := db.cur.Load().mgr.(docClearer); ok {
		c.ClearDoc(lid, db.opts.clock())
	}
	return lid, nil
}

// Compact releases removed lids for reuse and shrinks the current attribute
// manager to the new lid limit. It returns the number of lids released.
func (db *DocumentDB) Compact() int {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	n := db.store.Compact()
	if s, ok := db.cur.Load().mgr.(shrinker); ok {
		s.Shrink(db.store.LidLimit())
	}
	db.logger.Debug("compaction completed", "released", n, "lid_limit", db.store.LidLimit())
	return n
}

// Acquire pins the published epoch for reading. The guard must be released.
func (db *DocumentDB) Acquire() (*ReadGuard, error) {
	for {
		if db.closed.Load() {
			return nil, ErrClosed
		}
		e := db.cur.Load()
		if e.TryIncRef() {
			return &ReadGuard{e: e}, nil
		}
	}
}

// Reconfigure replaces the attribute manager with newMgr.
//
// It returns once readers of the previous epoch have drained, the previous
// manager has been torn down, and every child importing from this collection
// has been re-resolved. If ctx ends while draining, the new epoch stays
// published but the previous manager is not torn down.
func (db *DocumentDB) Reconfigure(ctx context.Context, newMgr attribute.Manager) error {
	start := time.Now()
	rebound, err := db.reconfigure(ctx, newMgr)
	elapsed := time.Since(start)

	db.logger.LogReconfigure(ctx, db.docType, elapsed, rebound, err)
	db.opts.metrics.OnReconfigure(db.docType, elapsed, rebound, err)
	return err
}

func checkManager(docType model.DocType, mgr attribute.Manager) error {
	if mgr == nil {
		return fmt.Errorf("%w: %s: nil attribute manager", ErrPrecondition, docType)
	}
	if mgr.DocType() != docType {
		return &ErrDocTypeMismatch{Expected: docType, Actual: mgr.DocType()}
	}
	return nil
}

func (db *DocumentDB) reconfigure(ctx context.Context, newMgr attribute.Manager) (int, error) {
	if err := checkManager(db.docType, newMgr); err != nil {
		return 0, err
	}
	db.reconfMu.Lock()
	if db.closed.Load() {
		db.reconfMu.Unlock()
		return 0, ErrClosed
	}
	prev := db.cur.Load()
	repo, err := db.resolve(ctx, newMgr, prev.mgr)
	if err != nil {
		db.reconfMu.Unlock()
		return 0, err
	}
	old := db.publishLocked(newMgr, repo)
	err = db.drain(ctx, old)
	if err == nil && old.mgr != newMgr {
		db.resolver.Teardown(old.mgr)
		db.logger.LogTeardown(ctx, db.docType, db.docType)
	}
	db.reconfMu.Unlock()

	if err != nil || old.mgr == newMgr {
		return 0, err
	}

	// Children still read through bindings to old.mgr until rebound.
	children := db.registry.dependents(db.docType)
	g, gctx := errgroup.WithContext(ctx)
	for _, child := range children {
		g.Go(func() error {
			return child.rebind(gctx, old.mgr)
		})
	}
	return len(children), g.Wait()
}

// rebind re-resolves the collection's imports against the current state of
// its parents and then tears down oldParent, if any.
func (db *DocumentDB) rebind(ctx context.Context, oldParent attribute.Manager) error {
	db.reconfMu.Lock()
	defer db.reconfMu.Unlock()
	if db.closed.Load() {
		return nil
	}

	prev := db.cur.Load()
	repo, err := db.resolve(ctx, prev.mgr, prev.mgr)
	if err != nil {
		return err
	}
	old := db.publishLocked(prev.mgr, repo)
	if err := db.drain(ctx, old); err != nil {
		return fmt.Errorf("rebind %s: %w", db.docType, err)
	}
	if oldParent != nil {
		db.resolver.Teardown(oldParent)
		db.logger.LogTeardown(ctx, db.docType, oldParent.DocType())
	}
	return nil
}

func (db *DocumentDB) resolve(ctx context.Context, newMgr, oldMgr attribute.Manager) (*reference.ImportedAttributesRepo, error) {
	repo, err := db.resolver.Resolve(newMgr, oldMgr, db.store, db.opts.visibilityDelay)
	if err != nil {
		err = translateError(err)
		db.logger.LogResolve(ctx, db.docType, reference.ResolveReport{}, err)
		return nil, err
	}
	report := repo.Report()
	db.logger.LogResolve(ctx, db.docType, report, nil)
	if len(report.MissingParents) > 0 {
		db.warn.Do(func() {
			for _, m := range report.MissingParents {
				db.logger.LogMissingParent(ctx, db.docType, m)
			}
		})
	}
	return repo, nil
}

// publishLocked installs a new epoch and returns the previous one, which
// still holds its publication reference.
func (db *DocumentDB) publishLocked(mgr attribute.Manager, repo *reference.ImportedAttributesRepo) *epoch {
	db.seq++
	return db.cur.Swap(newEpoch(db.seq, mgr, repo))
}

// drain drops the publication reference of e and waits for its readers.
func (db *DocumentDB) drain(ctx context.Context, e *epoch) error {
	if e == nil {
		return nil
	}
	e.DecRef()
	return db.await(ctx, e)
}

// await waits until every reader of e has released it.
func (db *DocumentDB) await(ctx context.Context, e *epoch) error {
	start := time.Now()
	var err error
	select {
	case <-e.drained:
	case <-ctx.Done():
		err = fmt.Errorf("drain epoch %d: %w", e.seq, ctx.Err())
		db.logger.WarnContext(ctx, "readers did not drain", "epoch", e.seq, "error", ctx.Err())
	}
	db.opts.metrics.OnDrain(db.docType, time.Since(start), err)
	return err
}

// close retires the published epoch and invalidates every import of the
// collection. It returns the manager that was published last.
//
// The collection stops accepting readers and writes on the first call. If
// ctx ends before the readers drain, the imports stay valid and close may be
// called again to finish.
func (db *DocumentDB) close(ctx context.Context) (attribute.Manager, error) {
	db.reconfMu.Lock()
	defer db.reconfMu.Unlock()
	if db.shut {
		return nil, ErrClosed
	}
	cur := db.cur.Load()
	if db.closed.CompareAndSwap(false, true) {
		cur.DecRef()
	}
	if err := db.await(ctx, cur); err != nil {
		return nil, err
	}
	db.shut = true
	if c, ok := db.resolver.(interface{ Close() }); ok {
		c.Close()
	} else {
		db.resolver.Teardown(cur.mgr)
	}
	return cur.mgr, nil
}

// ReadGuard pins one epoch of a DocumentDB. Imports obtained through it stay
// bound to that epoch's attribute managers until Release.
type ReadGuard struct {
	e        *epoch
	released atomic.Bool
}

// Epoch returns the sequence number of the pinned epoch.
func (g *ReadGuard) Epoch() uint64 { return g.e.seq }

// Imported returns the imported attribute with the given name.
func (g *ReadGuard) Imported(name string) (*reference.ImportedAttribute, bool) {
	return g.e.repo.Get(name)
}

// ImportedNames returns the names of all imported attributes, sorted.
func (g *ReadGuard) ImportedNames() []string { return g.e.repo.Names() }

// Attribute returns the collection's own attribute with the given name.
func (g *ReadGuard) Attribute(name string) (attribute.Accessor, bool) {
	return g.e.mgr.ReaderFor(name)
}

// Attributes returns the pinned attribute manager.
func (g *ReadGuard) Attributes() attribute.Manager { return g.e.mgr }

// Release unpins the epoch. It is safe to call more than once.
func (g *ReadGuard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.e.DecRef()
	}
}
