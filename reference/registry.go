package reference

import (
	"github.com/cnsky2016/vespa/attribute"
	"github.com/cnsky2016/vespa/docmeta"
	"github.com/cnsky2016/vespa/model"
)

// ReferenceField declares that the child attribute Name refers to documents
// in collection Target.
type ReferenceField struct {
	Name   string
	Target model.DocType
}

// ImportedField declares one import explicitly: attribute TargetField of the
// parent referenced by ReferenceField is exposed on the child as Name.
type ImportedField struct {
	Name           string
	ReferenceField string
	TargetField    string
}

// Parent is what a registry knows about a parent collection.
type Parent struct {
	DocType    model.DocType
	Attributes attribute.Manager
	MetaStore  docmeta.MetaStore
}

func (p Parent) usable() bool {
	return p.Attributes != nil && p.MetaStore != nil
}

// ParentRegistry looks up the current state of parent collections.
type ParentRegistry interface {
	Lookup(docType model.DocType) (Parent, bool)
}

// RegistryFunc adapts a function to a ParentRegistry.
type RegistryFunc func(docType model.DocType) (Parent, bool)

// Lookup implements ParentRegistry.
func (f RegistryFunc) Lookup(docType model.DocType) (Parent, bool) { return f(docType) }
