package reference

import (
	"sync"
	"time"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/model"
)

// Resolver resolves all references of one document collection into its
// parent collections.
type Resolver interface {
	// Resolve builds the imported attributes of the child described by
	// newAttrMgr. oldAttrMgr is the manager the previous repo was built from,
	// or nil on first construction.
	Resolve(newAttrMgr, oldAttrMgr attribute.Manager, metaStore docmeta.Reader, visibilityDelay time.Duration) (*ImportedAttributesRepo, error)

	// Teardown invalidates every import that depends on oldAttrMgr.
	Teardown(oldAttrMgr attribute.Manager)
}

// subscription connects a child reference attribute to a parent identity store.
type subscription struct {
	store  docmeta.MetaStore
	cancel func()
}

// DocumentDBResolver is the Resolver of a child collection.
type DocumentDBResolver struct {
	docType  model.DocType
	registry ParentRegistry
	fields   []ReferenceField
	imported map[string][]ImportedField // by reference field
	opts     options

	mu      sync.Mutex
	current *ImportedAttributesRepo
	// bindings maps every binding that may still be read to the child
	// manager of the newest repo using it.
	bindings map[*binding]attribute.Manager
	subs     map[*attribute.Reference]*subscription
}

var _ Resolver = (*DocumentDBResolver)(nil)

// NewDocumentDBResolver creates a resolver for the child collection docType
// declaring fields.
func NewDocumentDBResolver(docType model.DocType, registry ParentRegistry, fields []ReferenceField, optFns ...Option) *DocumentDBResolver {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	imported := make(map[string][]ImportedField)
	for _, f := range opts.importedField {
		imported[f.ReferenceField] = append(imported[f.ReferenceField], f)
	}

	return &DocumentDBResolver{
		docType:  docType,
		registry: registry,
		fields:   append([]ReferenceField(nil), fields...),
		imported: imported,
		opts:     opts,
		bindings: make(map[*binding]attribute.Manager),
		subs:     make(map[*attribute.Reference]*subscription),
	}
}

// DocType returns the child collection the resolver serves.
func (r *DocumentDBResolver) DocType() model.DocType { return r.docType }

// Fields returns the declared reference fields.
func (r *DocumentDBResolver) Fields() []ReferenceField {
	return append([]ReferenceField(nil), r.fields...)
}

// Resolve implements Resolver.
func (r *DocumentDBResolver) Resolve(newAttrMgr, oldAttrMgr attribute.Manager, metaStore docmeta.Reader, visibilityDelay time.Duration) (*ImportedAttributesRepo, error) {
	start := time.Now()

	r.mu.Lock()
	repo, err := r.resolveLocked(newAttrMgr, oldAttrMgr, metaStore, visibilityDelay)
	r.mu.Unlock()

	var report ResolveReport
	if err == nil {
		report = repo.report
		r.opts.logger.Debug("Resolve completed",
			"docType", r.docType,
			"imports", repo.Len(),
			"built", report.Built,
			"carried", report.Carried,
			"missingParents", len(report.MissingParents),
			"duration", time.Since(start),
		)
	} else {
		r.opts.logger.Error("Resolve failed", "docType", r.docType, "error", err)
	}
	r.opts.metrics.OnResolve(r.docType, time.Since(start), report, err)
	return repo, err
}

func (r *DocumentDBResolver) checkPreconditions(newAttrMgr, oldAttrMgr attribute.Manager, metaStore docmeta.Reader, visibilityDelay time.Duration) error {
	if newAttrMgr == nil {
		return preconditionf(r.docType, "new attribute manager is nil")
	}
	if got := newAttrMgr.DocType(); got != r.docType {
		return preconditionf(r.docType, "new attribute manager belongs to %s", got)
	}
	if oldAttrMgr != nil {
		if got := oldAttrMgr.DocType(); got != r.docType {
			return preconditionf(r.docType, "old attribute manager belongs to %s", got)
		}
	}
	if metaStore == nil {
		return preconditionf(r.docType, "document meta store is nil")
	}
	if got := metaStore.DocType(); got != r.docType {
		return preconditionf(r.docType, "document meta store belongs to %s", got)
	}
	if visibilityDelay < 0 {
		return preconditionf(r.docType, "negative visibility delay %s", visibilityDelay)
	}
	for _, f := range r.fields {
		if _, ok := newAttrMgr.Reference(f.Name); !ok {
			return preconditionf(r.docType, "reference field %q has no reference attribute", f.Name)
		}
	}
	return nil
}

func (r *DocumentDBResolver) resolveLocked(newAttrMgr, oldAttrMgr attribute.Manager, metaStore docmeta.Reader, visibilityDelay time.Duration) (*ImportedAttributesRepo, error) {
	if err := r.checkPreconditions(newAttrMgr, oldAttrMgr, metaStore, visibilityDelay); err != nil {
		return nil, err
	}

	// Only the repo built from oldAttrMgr may donate bindings.
	var prev *ImportedAttributesRepo
	if oldAttrMgr != nil && r.current != nil && r.current.childMgr == oldAttrMgr {
		prev = r.current
	}

	var (
		report ResolveReport
		attrs  []*ImportedAttribute
		taken  = make(map[string]string) // import name -> reference field
	)

	for _, field := range r.fields {
		ref, _ := newAttrMgr.Reference(field.Name)

		parent, ok := r.registry.Lookup(field.Target)
		if !ok || !parent.usable() {
			report.MissingParents = append(report.MissingParents, MissingParent{
				ReferenceField: field.Name,
				Target:         field.Target,
			})
			continue
		}
		r.connectLocked(ref, parent.MetaStore)

		for _, cand := range r.candidates(field, parent) {
			if owner, dup := taken[cand.Name]; dup {
				r.opts.logger.Debug("Import name already taken",
					"docType", r.docType,
					"name", cand.Name,
					"field", field.Name,
					"owner", owner,
				)
				report.Skipped = append(report.Skipped, SkippedImport{
					Name:           cand.Name,
					ReferenceField: field.Name,
					Reason:         "name already imported through " + owner,
				})
				continue
			}
			if !parent.Attributes.IsImportable(cand.TargetField) {
				report.Skipped = append(report.Skipped, SkippedImport{
					Name:           cand.Name,
					ReferenceField: field.Name,
					Reason:         "target " + cand.TargetField + " is not importable",
				})
				continue
			}

			fresh, err := newBinding(Source{
				Parent:          parent,
				Attribute:       cand.TargetField,
				Field:           field,
				Reference:       ref,
				ChildMetaStore:  metaStore,
				VisibilityDelay: visibilityDelay,
				Clock:           r.opts.clock,
			})
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedImport{
					Name:           cand.Name,
					ReferenceField: field.Name,
					Reason:         err.Error(),
				})
				continue
			}

			b := fresh
			if old, ok := prev.lookup(cand.Name); ok && old.b.sameInputs(fresh) && !old.b.invalid.Load() {
				b = old.b
				report.Carried++
			} else {
				report.Built++
			}
			r.bindings[b] = newAttrMgr
			taken[cand.Name] = field.Name
			attrs = append(attrs, &ImportedAttribute{name: cand.Name, b: b})
		}
	}

	repo := NewImportedAttributesRepo(r.docType, newAttrMgr, attrs, report)
	r.current = repo
	return repo, nil
}

func (prev *ImportedAttributesRepo) lookup(name string) (*ImportedAttribute, bool) {
	if prev == nil {
		return nil, false
	}
	return prev.Get(name)
}

// candidates lists the imports to build for field: the configured imports if
// any, otherwise every importable parent attribute under its own name.
func (r *DocumentDBResolver) candidates(field ReferenceField, parent Parent) []ImportedField {
	if explicit, ok := r.imported[field.Name]; ok {
		return explicit
	}
	var out []ImportedField
	for _, name := range parent.Attributes.AttributeNames() {
		if !parent.Attributes.IsImportable(name) {
			continue
		}
		out = append(out, ImportedField{Name: name, ReferenceField: field.Name, TargetField: name})
	}
	return out
}

// connectLocked subscribes ref to store unless that subscription already exists.
func (r *DocumentDBResolver) connectLocked(ref *attribute.Reference, store docmeta.MetaStore) {
	if sub, ok := r.subs[ref]; ok {
		if sub.store == store {
			return
		}
		sub.cancel()
	}
	// Subscribe before populating so no change falls between the two.
	cancel := store.Subscribe(ref)
	ref.PopulateTargetLids(store)
	r.subs[ref] = &subscription{store: store, cancel: cancel}
}

// Teardown implements Resolver.
//
// Imports are invalidated when their parent manager is oldAttrMgr, when
// their reference attribute belongs to oldAttrMgr and is no longer used by the
// current child manager, or when no repo newer than one built from oldAttrMgr
// carried them over.
//
// A binding superseded while its child manager stays current is kept until
// its parent manager or its reference attribute is torn down.
func (r *DocumentDBResolver) Teardown(oldAttrMgr attribute.Manager) {
	if oldAttrMgr == nil {
		return
	}

	r.mu.Lock()
	invalidated, unsubscribed := r.teardownLocked(oldAttrMgr)
	r.mu.Unlock()

	r.opts.logger.Debug("Teardown completed",
		"docType", r.docType,
		"manager", oldAttrMgr.DocType(),
		"invalidated", invalidated,
		"unsubscribed", unsubscribed,
	)
	r.opts.metrics.OnTeardown(r.docType, invalidated, unsubscribed)
}

func (r *DocumentDBResolver) teardownLocked(oldAttrMgr attribute.Manager) (invalidated, unsubscribed int) {
	var currentChild attribute.Manager
	if r.current != nil {
		currentChild = r.current.childMgr
	}
	if currentChild == oldAttrMgr {
		r.opts.logger.Warn("Tearing down the active attribute manager", "docType", r.docType)
		r.current = nil
		currentChild = nil
	}

	// retired reports whether ref is owned by oldAttrMgr and no longer in use.
	retired := func(ref *attribute.Reference) bool {
		owned, ok := oldAttrMgr.Reference(ref.Name())
		if !ok || owned != ref {
			return false
		}
		if currentChild == nil {
			return true
		}
		inUse, ok := currentChild.Reference(ref.Name())
		return !ok || inUse != ref
	}

	for b, owner := range r.bindings {
		if b.invalid.Load() {
			delete(r.bindings, b)
			continue
		}
		if b.parentMgr == oldAttrMgr || owner == oldAttrMgr || retired(b.ref) {
			if b.invalidate() {
				invalidated++
			}
			delete(r.bindings, b)
		}
	}

	for ref, sub := range r.subs {
		if retired(ref) {
			sub.cancel()
			delete(r.subs, ref)
			unsubscribed++
		}
	}
	return invalidated, unsubscribed
}

// Close cancels all gid listeners and invalidates every import the resolver
// built. It is used when the child collection is dropped.
func (r *DocumentDBResolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for b := range r.bindings {
		b.invalidate()
	}
	clear(r.bindings)
	for _, sub := range r.subs {
		sub.cancel()
	}
	clear(r.subs)
	r.current = nil
}

// NumBindings returns the number of imports the resolver may still have to
// invalidate.
func (r *DocumentDBResolver) NumBindings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}

// NumListeners returns the number of gid listeners the resolver keeps.
func (r *DocumentDBResolver) NumListeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
