package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMap(t *testing.T) {
	m, err := ToMap(map[string]string{"is": "x"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"is": "x"}, m)

	m, err = ToMap(map[interface{}]interface{}{"is": "x"})
	assert.NoError(t, err)
	assert.Equal(t, "x", m["is"])

	_, err = ToMap(`{"is":"x"}`)
	assert.Error(t, err)

	_, err = ToMap([]string{"a"})
	assert.Error(t, err)
}

func TestIsMap(t *testing.T) {
	assert.True(t, IsMap(map[string]int{}))
	assert.True(t, IsMap(&map[string]interface{}{}))
	assert.False(t, IsMap(map[int]string{}))
	assert.False(t, IsMap("map"))
	assert.False(t, IsMap(nil))
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []interface{}{nil, "", "0", 0, 0.0, false, []int{}, map[string]int{}, (*int)(nil)} {
		assert.True(t, IsEmpty(v), "%#v", v)
	}
	for _, v := range []interface{}{"a", "00", 1, -1, true, []int{0}, map[string]int{"a": 0}, struct{}{}} {
		assert.False(t, IsEmpty(v), "%#v", v)
	}
}

func TestToBool(t *testing.T) {
	for _, s := range []string{"on", "yes", "true", "1"} {
		assert.True(t, ToBoolDef(s, false), s)
	}
	for _, s := range []string{"off", "no", "false", "0"} {
		assert.False(t, ToBoolDef(s, true), s)
	}
	assert.True(t, ToBoolDef("maybe", true))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "12", ToString(12))
	assert.Equal(t, "x", ToString([]byte("x")))
}
