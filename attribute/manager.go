package attribute

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
)

type entry struct {
	cfg Config
	vec *Vector
	ref *Reference
}

// MemoryManager is the in-memory Manager implementation.
//
// A MemoryManager is built on the reconfiguration path and must not be
// modified once it has been handed to readers. Derive creates the next
// manager, sharing every attribute instance that does not change.
type MemoryManager struct {
	docType model.DocType
	entries map[string]entry
}

var _ Manager = (*MemoryManager)(nil)

// NewManager creates an empty manager for docType.
func NewManager(docType model.DocType) *MemoryManager {
	return &MemoryManager{
		docType: docType,
		entries: make(map[string]entry),
	}
}

// AddAttribute creates a value attribute from cfg.
func (m *MemoryManager) AddAttribute(cfg Config) (*Vector, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidConfig)
	}
	if cfg.Type == metadata.FieldTypeReference {
		return nil, fmt.Errorf("%w: %q: use AddReference for reference attributes", ErrInvalidConfig, cfg.Name)
	}
	if _, ok := m.entries[cfg.Name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrExists, cfg.Name)
	}
	vec := NewVector(cfg.Name, cfg.Type)
	m.entries[cfg.Name] = entry{cfg: cfg, vec: vec}
	return vec, nil
}

// AddReference creates a reference attribute.
func (m *MemoryManager) AddReference(name string) (*Reference, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidConfig)
	}
	if _, ok := m.entries[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrExists, name)
	}
	ref := NewReference(name)
	m.entries[name] = entry{
		cfg: Config{Name: name, Type: metadata.FieldTypeReference},
		ref: ref,
	}
	return ref, nil
}

// Vector returns the value attribute with the given name.
func (m *MemoryManager) Vector(name string) (*Vector, bool) {
	e, ok := m.entries[name]
	if !ok || e.vec == nil {
		return nil, false
	}
	return e.vec, true
}

// Derive returns a new manager for the same collection sharing all attribute
// instances of m.
func (m *MemoryManager) Derive() *MemoryManager {
	next := &MemoryManager{
		docType: m.docType,
		entries: make(map[string]entry, len(m.entries)),
	}
	for name, e := range m.entries {
		next.entries[name] = e
	}
	return next
}

// Drop removes an attribute from the manager. The instance itself is left
// untouched, so managers it was derived from keep serving it.
func (m *MemoryManager) Drop(name string) error {
	if _, ok := m.entries[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(m.entries, name)
	return nil
}

// SetImportable changes whether a value attribute may be imported.
func (m *MemoryManager) SetImportable(name string, importable bool) error {
	e, ok := m.entries[name]
	if !ok || e.vec == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	e.cfg.Importable = importable
	m.entries[name] = e
	return nil
}

// DocType implements Manager.
func (m *MemoryManager) DocType() model.DocType { return m.docType }

// AttributeNames implements Manager.
func (m *MemoryManager) AttributeNames() []string {
	names := make([]string, 0, len(m.entries))
	for name, e := range m.entries {
		if e.vec != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// IsImportable implements Manager.
func (m *MemoryManager) IsImportable(name string) bool {
	e, ok := m.entries[name]
	return ok && e.vec != nil && e.cfg.Importable
}

// ReaderFor implements Manager.
func (m *MemoryManager) ReaderFor(name string) (Accessor, bool) {
	e, ok := m.entries[name]
	if !ok || e.vec == nil {
		return nil, false
	}
	return e.vec, true
}

// Reference implements Manager.
func (m *MemoryManager) Reference(name string) (*Reference, bool) {
	e, ok := m.entries[name]
	if !ok || e.ref == nil {
		return nil, false
	}
	return e.ref, true
}

// References implements Manager.
func (m *MemoryManager) References() []*Reference {
	refs := make([]*Reference, 0)
	for _, e := range m.entries {
		if e.ref != nil {
			refs = append(refs, e.ref)
		}
	}
	slices.SortFunc(refs, func(a, b *Reference) int {
		return cmp.Compare(a.name, b.name)
	})
	return refs
}

// Shrink shrinks every attribute owned by the manager to lidLimit.
func (m *MemoryManager) Shrink(lidLimit model.LocalID) {
	for _, e := range m.entries {
		if e.vec != nil {
			e.vec.Shrink(lidLimit)
		}
		if e.ref != nil {
			e.ref.Shrink(lidLimit)
		}
	}
}

// ClearDoc resets lid in every attribute owned by the manager so that a
// document later assigned the same lid starts empty. Clearing a value
// attribute counts as a write at time at.
func (m *MemoryManager) ClearDoc(lid model.LocalID, at time.Time) {
	for _, e := range m.entries {
		if e.vec != nil {
			e.vec.Clear(lid, at)
		}
		if e.ref != nil {
			e.ref.Clear(lid)
		}
	}
}
