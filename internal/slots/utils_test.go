package slots

import (
	"testing"

	"vueblade/pkg/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceResolve(t *testing.T) {
	scope := engine.NewScopeFrom(map[string]interface{}{
		"user":  map[string]interface{}{"name": "Ana", "tags": []interface{}{"a", "b"}},
		"typed": map[string]int{"count": 3},
		"empty": nil,
		"n":     2,
	})

	tests := []struct {
		expr   string
		want   interface{}
		exists bool
	}{
		{`$user.name`, "Ana", true},
		{`$user['name']`, "Ana", true},
		{`$user["name"]`, "Ana", true},
		{`$user.tags[1]`, "b", true},
		{`$user.tags[5]`, nil, false},
		{`$user.name.first`, nil, false},
		{`$typed.count`, 3, true},
		{`$empty`, nil, false},
		{`$missing`, nil, false},
		{`'it\'s'`, "it's", true},
		{`"double"`, "double", true},
		{`$n * 2`, 4, true},
		{`$missing ?? 'x'`, "x", true},
		{`'$literal' + $user.name`, "$literalAna", true},
		{`$user.missing.deeper`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ref, err := compileReference(tt.expr)
			require.NoError(t, err)
			got, ok := ref.resolve(scope)
			assert.Equal(t, tt.exists, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileReferenceErrors(t *testing.T) {
	for _, expr := range []string{``, `   `, `$a +`, `(`} {
		_, err := compileReference(expr)
		assert.Error(t, err, expr)
	}
}

func TestUnquote(t *testing.T) {
	s, ok := unquote(`'a'`)
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	_, ok = unquote(`'a' . 'b'`)
	assert.False(t, ok)

	_, ok = unquote(`'a"`)
	assert.False(t, ok)
}

func TestStripSigils(t *testing.T) {
	assert.Equal(t, `a ? 'x$y' : b`, stripSigils(`$a ? 'x$y' : $b`))
	assert.Equal(t, `price > 5 && "$"`, stripSigils(`$price > 5 && "$"`))
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy("yes", false))
	assert.False(t, truthy("0", true))
	assert.False(t, truthy([]int{}, true))
	assert.True(t, truthy("yes", true))
	assert.True(t, truthy(1, true))
}
