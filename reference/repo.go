package reference

import (
	"iter"
	"slices"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/model"
)

// MissingParent records a reference field whose parent collection was not
// known to the registry when the repo was built.
type MissingParent struct {
	ReferenceField string
	Target         model.DocType
}

// SkippedImport records an import candidate that was not built.
type SkippedImport struct {
	Name           string
	ReferenceField string
	Reason         string
}

// ResolveReport summarizes how a repo was built.
type ResolveReport struct {
	// Built is the number of imports with a fresh binding.
	Built int
	// Carried is the number of imports whose binding was carried over.
	Carried int
	// MissingParents lists reference fields whose parent was unknown.
	MissingParents []MissingParent
	// Skipped lists candidates dropped by name conflicts or configuration.
	Skipped []SkippedImport
}

// Degraded reports whether some declared imports could not be resolved.
func (r ResolveReport) Degraded() bool {
	return len(r.MissingParents) > 0
}

// ImportedAttributesRepo maps imported attribute names to their imports.
//
// A repo is immutable once built. The only state that changes afterwards is
// the validity of its imports.
type ImportedAttributesRepo struct {
	child    model.DocType
	childMgr attribute.Manager
	imports  map[string]*ImportedAttribute
	names    []string
	report   ResolveReport
}

// NewImportedAttributesRepo builds a repo for child from attrs. Later
// entries with a name already present are ignored.
func NewImportedAttributesRepo(child model.DocType, childMgr attribute.Manager, attrs []*ImportedAttribute, report ResolveReport) *ImportedAttributesRepo {
	r := &ImportedAttributesRepo{
		child:    child,
		childMgr: childMgr,
		imports:  make(map[string]*ImportedAttribute, len(attrs)),
		names:    make([]string, 0, len(attrs)),
		report:   report,
	}
	for _, a := range attrs {
		if _, dup := r.imports[a.name]; dup {
			continue
		}
		r.imports[a.name] = a
		r.names = append(r.names, a.name)
	}
	slices.Sort(r.names)
	return r
}

// DocType returns the child collection the repo belongs to.
func (r *ImportedAttributesRepo) DocType() model.DocType { return r.child }

// Get returns the import with the given name.
func (r *ImportedAttributesRepo) Get(name string) (*ImportedAttribute, bool) {
	a, ok := r.imports[name]
	return a, ok
}

// Names returns the imported attribute names, sorted.
func (r *ImportedAttributesRepo) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of imports.
func (r *ImportedAttributesRepo) Len() int { return len(r.names) }

// All iterates over the imports in name order.
func (r *ImportedAttributesRepo) All() iter.Seq2[string, *ImportedAttribute] {
	return func(yield func(string, *ImportedAttribute) bool) {
		for _, name := range r.names {
			if !yield(name, r.imports[name]) {
				return
			}
		}
	}
}

// Report returns how the repo was built.
func (r *ImportedAttributesRepo) Report() ResolveReport { return r.report }

// InvalidateSource invalidates every import whose parent attribute manager
// is m and returns how many imports changed state.
func (r *ImportedAttributesRepo) InvalidateSource(m attribute.Manager) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, a := range r.imports {
		if a.b.parentMgr == m && a.b.invalidate() {
			n++
		}
	}
	return n
}
