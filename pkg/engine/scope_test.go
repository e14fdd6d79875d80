package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeGet(t *testing.T) {
	root := NewScopeFrom(map[string]interface{}{
		"user": map[string]interface{}{
			"profile": map[string]string{"name": "Ana"},
		},
		"nothing": nil,
	})
	child := NewScope(root)
	child.Set("local", 1)

	t.Run("direct key", func(t *testing.T) {
		v, ok := child.Get("local")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("parent key", func(t *testing.T) {
		_, ok := child.Get("user")
		assert.True(t, ok)
	})

	t.Run("dot path through typed map", func(t *testing.T) {
		v, ok := child.Get("user.profile.name")
		assert.True(t, ok)
		assert.Equal(t, "Ana", v)
	})

	t.Run("missing segment", func(t *testing.T) {
		_, ok := child.Get("user.profile.age")
		assert.False(t, ok)
	})

	t.Run("explicit nil exists", func(t *testing.T) {
		v, ok := child.Get("nothing")
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("walking through nil", func(t *testing.T) {
		_, ok := child.Get("nothing.deeper")
		assert.False(t, ok)
	})
}

func TestScopeToMapInnerWins(t *testing.T) {
	root := NewScopeFrom(map[string]interface{}{"a": 1, "b": 2})
	child := NewScope(root)
	child.Set("b", 3)

	assert.Equal(t, map[string]interface{}{"a": 1, "b": 3}, child.ToMap())
}
