package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypesHelper(t *testing.T) {
	t.Run("AsBool", func(t *testing.T) {
		b, ok := Bool(true).AsBool()
		assert.True(t, ok)
		assert.True(t, b)

		_, ok = Int(1).AsBool()
		assert.False(t, ok)
	})

	t.Run("AsString", func(t *testing.T) {
		s, ok := String("Acme").AsString()
		assert.True(t, ok)
		assert.Equal(t, "Acme", s)
		assert.Equal(t, "", Int(1).StringValue())
	})
}

func TestValueEqual(t *testing.T) {
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(String("b")))
	assert.False(t, Int(1).Equal(Float(1)))
	assert.True(t, Null().Equal(Null()))
	assert.True(t, Array([]Value{Int(1), Bool(true)}).Equal(Array([]Value{Int(1), Bool(true)})))
	assert.False(t, Array([]Value{Int(1)}).Equal(Array([]Value{Int(1), Int(2)})))
}

func TestValueClone(t *testing.T) {
	orig := Array([]Value{Int(1), Array([]Value{String("x")})})
	clone := orig.Clone()
	assert.True(t, orig.Equal(clone))

	clone.A[1].A[0] = String("y")
	s, _ := orig.A[1].A[0].AsString()
	assert.Equal(t, "x", s)
}
