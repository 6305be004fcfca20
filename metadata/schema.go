package metadata

// FieldType defines the data type of an attribute.
type FieldType uint8

const (
	FieldTypeAny FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeString
	FieldTypeBool
	FieldTypeArray
	// FieldTypeReference marks a reference attribute. Its values are parent
	// lids and are never read through a Value.
	FieldTypeReference
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeAny:
		return "Any"
	case FieldTypeInt:
		return "Int"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeString:
		return "String"
	case FieldTypeBool:
		return "Bool"
	case FieldTypeArray:
		return "Array"
	case FieldTypeReference:
		return "Reference"
	default:
		return "Unknown"
	}
}

// Accepts reports whether a value of kind k may be stored in an attribute of this type.
// Null is always accepted.
func (t FieldType) Accepts(k Kind) bool {
	if k == KindNull {
		return true
	}
	switch t {
	case FieldTypeAny:
		return k != KindInvalid
	case FieldTypeInt:
		return k == KindInt
	case FieldTypeFloat:
		return k == KindFloat || k == KindInt // Allow upgrading Int to Float
	case FieldTypeString:
		return k == KindString
	case FieldTypeBool:
		return k == KindBool
	case FieldTypeArray:
		return k == KindArray
	}
	return false
}
