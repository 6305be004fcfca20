package attribute

import (
	"time"

	"github.com/cnsky2016/vespa/metadata"
	"github.com/cnsky2016/vespa/model"
)

// Accessor reads a single attribute by lid.
//
// Implementations must return a value consistent with a single point in time
// when the attribute is written concurrently.
type Accessor interface {
	// Name returns the attribute name.
	Name() string
	// Type returns the declared field type.
	Type() metadata.FieldType
	// Read returns the value stored for lid, or false if none is stored.
	Read(lid model.LocalID) (metadata.Value, bool)
	// LastWriteTime returns the time of the last write affecting lid.
	// The zero time means lid was never written.
	LastWriteTime(lid model.LocalID) time.Time
}

// Manager exposes the attributes of one collection at one point in time.
//
// A Manager must be safe to query until its owning storage is released.
type Manager interface {
	// DocType returns the collection the attributes belong to.
	DocType() model.DocType
	// AttributeNames returns the names of all value attributes, sorted.
	AttributeNames() []string
	// IsImportable reports whether name may be imported by child collections.
	IsImportable(name string) bool
	// ReaderFor returns the accessor of a value attribute.
	ReaderFor(name string) (Accessor, bool)
	// Reference returns the reference attribute with the given name.
	Reference(name string) (*Reference, bool)
	// References returns all reference attributes, sorted by name.
	References() []*Reference
}

// Config declares one attribute of a manager.
type Config struct {
	Name string
	Type metadata.FieldType
	// Importable marks the attribute as visible to child collections.
	Importable bool
}
