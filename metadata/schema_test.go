package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldTypeString(t *testing.T) {
	tests := []struct {
		ft       FieldType
		expected string
	}{
		{FieldTypeAny, "Any"},
		{FieldTypeInt, "Int"},
		{FieldTypeFloat, "Float"},
		{FieldTypeString, "String"},
		{FieldTypeBool, "Bool"},
		{FieldTypeArray, "Array"},
		{FieldTypeReference, "Reference"},
		{FieldType(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ft.String())
	}
}

func TestFieldTypeAccepts(t *testing.T) {
	tests := []struct {
		name string
		ft   FieldType
		v    Value
		want bool
	}{
		{"String", FieldTypeString, String("x"), true},
		{"StringRejectsInt", FieldTypeString, Int(1), false},
		{"IntAsFloat", FieldTypeFloat, Int(10), true},
		{"FloatRejectsString", FieldTypeFloat, String("1"), false},
		{"NullAlwaysAccepted", FieldTypeBool, Null(), true},
		{"AnyAcceptsArray", FieldTypeAny, Array([]Value{Int(1)}), true},
		{"AnyRejectsInvalid", FieldTypeAny, Value{}, false},
		{"ReferenceRejectsValues", FieldTypeReference, Int(7), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ft.Accepts(tt.v.Kind))
		})
	}
}
