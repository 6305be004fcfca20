package reference

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
)

// ReadStatus tells why an imported read did or did not produce a value.
type ReadStatus uint8

const (
	// StatusOK means the parent value was returned.
	StatusOK ReadStatus = iota
	// StatusInvalidated means the import was torn down.
	StatusInvalidated
	// StatusChildNotLive means the child lid does not address a live document.
	StatusChildNotLive
	// StatusUnsetReference means the child document does not refer to any parent.
	StatusUnsetReference
	// StatusDanglingReference means the referenced parent document is gone.
	StatusDanglingReference
	// StatusNotYetVisible means the parent value was written within the visibility delay.
	StatusNotYetVisible
	// StatusNoValue means the parent document has no value for the attribute.
	StatusNoValue
)

// String returns the string representation of the ReadStatus.
func (s ReadStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidated:
		return "invalidated"
	case StatusChildNotLive:
		return "child_not_live"
	case StatusUnsetReference:
		return "unset_reference"
	case StatusDanglingReference:
		return "dangling_reference"
	case StatusNotYetVisible:
		return "not_yet_visible"
	case StatusNoValue:
		return "no_value"
	default:
		return "unknown"
	}
}

// Source describes what an ImportedAttribute reads from.
type Source struct {
	// Parent is the parent collection as seen by the registry.
	Parent Parent
	// Attribute is the name of the parent attribute.
	Attribute string
	// Field is the child's reference field.
	Field ReferenceField
	// Reference is the child's reference attribute for Field.
	Reference *attribute.Reference
	// ChildMetaStore is the child's identity store.
	ChildMetaStore docmeta.Reader
	// VisibilityDelay hides parent writes younger than the delay.
	VisibilityDelay time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// binding is the immutable read path of an import. It is shared by every
// repo that carries the import over.
type binding struct {
	parent     model.DocType
	parentMgr  attribute.Manager
	accessor   attribute.Accessor
	parentMeta docmeta.Reader
	field      ReferenceField
	ref        *attribute.Reference
	childMeta  docmeta.Reader
	delay      time.Duration
	now        func() time.Time

	invalid atomic.Bool
}

func newBinding(src Source) (*binding, error) {
	if src.Reference == nil || src.ChildMetaStore == nil || !src.Parent.usable() {
		return nil, fmt.Errorf("import %q: incomplete source", src.Attribute)
	}
	acc, ok := src.Parent.Attributes.ReaderFor(src.Attribute)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchAttribute, src.Parent.DocType, src.Attribute)
	}
	now := src.Clock
	if now == nil {
		now = time.Now
	}
	return &binding{
		parent:     src.Parent.DocType,
		parentMgr:  src.Parent.Attributes,
		accessor:   acc,
		parentMeta: src.Parent.MetaStore,
		field:      src.Field,
		ref:        src.Reference,
		childMeta:  src.ChildMetaStore,
		delay:      src.VisibilityDelay,
		now:        now,
	}, nil
}

// sameInputs reports whether b reads through exactly the same objects as o.
func (b *binding) sameInputs(o *binding) bool {
	return b.parent == o.parent &&
		b.parentMgr == o.parentMgr &&
		b.accessor == o.accessor &&
		b.parentMeta == o.parentMeta &&
		b.field == o.field &&
		b.ref == o.ref &&
		b.childMeta == o.childMeta &&
		b.delay == o.delay
}

func (b *binding) invalidate() bool {
	return b.invalid.CompareAndSwap(false, true)
}

func (b *binding) read(childLid model.LocalID) (metadata.Value, ReadStatus) {
	if b.invalid.Load() {
		return metadata.Value{}, StatusInvalidated
	}
	if !b.childMeta.IsLive(childLid) {
		return metadata.Value{}, StatusChildNotLive
	}
	parentLid := b.ref.TargetLid(childLid)
	if !parentLid.Valid() {
		if _, set := b.ref.TargetGid(childLid); !set {
			return metadata.Value{}, StatusUnsetReference
		}
		return metadata.Value{}, StatusDanglingReference
	}
	if !b.parentMeta.IsLive(parentLid) {
		return metadata.Value{}, StatusDanglingReference
	}
	horizon := b.now().Add(-b.delay)
	if b.accessor.LastWriteTime(parentLid).After(horizon) {
		return metadata.Value{}, StatusNotYetVisible
	}
	v, ok := b.accessor.Read(parentLid)
	if !ok {
		return metadata.Value{}, StatusNoValue
	}
	return v, StatusOK
}

// ImportedAttribute exposes a parent attribute as if it were an attribute of
// the child collection.
//
// It is safe for concurrent use. Reads never block on the resolver.
type ImportedAttribute struct {
	name string
	b    *binding
}

// NewImportedAttribute builds an import named name reading from src.
func NewImportedAttribute(name string, src Source) (*ImportedAttribute, error) {
	b, err := newBinding(src)
	if err != nil {
		return nil, err
	}
	return &ImportedAttribute{name: name, b: b}, nil
}

// Name returns the name the attribute has in the child collection.
func (a *ImportedAttribute) Name() string { return a.name }

// SourceParent returns the parent collection the value lives in.
func (a *ImportedAttribute) SourceParent() model.DocType { return a.b.parent }

// SourceAttribute returns the attribute name in the parent collection.
func (a *ImportedAttribute) SourceAttribute() string { return a.b.accessor.Name() }

// ReferenceField returns the child reference field the import follows.
func (a *ImportedAttribute) ReferenceField() ReferenceField { return a.b.field }

// Type returns the field type of the parent attribute.
func (a *ImportedAttribute) Type() metadata.FieldType { return a.b.accessor.Type() }

// VisibilityDelay returns the delay applied to parent writes.
func (a *ImportedAttribute) VisibilityDelay() time.Duration { return a.b.delay }

// Valid reports whether the import has not been torn down.
func (a *ImportedAttribute) Valid() bool { return !a.b.invalid.Load() }

// SameBinding reports whether a and other read through the same binding,
// i.e. one was carried over from the other.
func (a *ImportedAttribute) SameBinding(other *ImportedAttribute) bool {
	return other != nil && a.b == other.b
}

// Value returns the parent's value for the document childLid refers to.
// It returns false whenever the value is unavailable; Status tells why.
func (a *ImportedAttribute) Value(childLid model.LocalID) (metadata.Value, bool) {
	v, st := a.b.read(childLid)
	return v, st == StatusOK
}

// Status performs the same read as Value and reports its outcome.
func (a *ImportedAttribute) Status(childLid model.LocalID) ReadStatus {
	_, st := a.b.read(childLid)
	return st
}

// ParentLid returns the parent lid childLid currently refers to.
func (a *ImportedAttribute) ParentLid(childLid model.LocalID) model.LocalID {
	return a.b.ref.TargetLid(childLid)
}
