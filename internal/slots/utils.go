package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"vueblade/pkg/engine"
	"vueblade/pkg/utils/coerce"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// reference is a template expression compiled once and resolved against a
// scope at render time. It is either a variable path ($user.name,
// $page['hero']), a quoted literal, or an arbitrary expr-lang program.
type reference struct {
	raw     string
	root    string
	path    []string
	literal *string
	program *vm.Program
}

var pathExpr = regexp.MustCompile(`^\$([A-Za-z_]\w*)((?:\.\w+|\[(?:'[^']*'|"[^"]*"|\w+)\])*)$`)
var pathSegment = regexp.MustCompile(`\.(\w+)|\['([^']*)'\]|\["([^"]*)"\]|\[(\w+)\]`)

// compileReference parses raw. Only programs that fail to compile are
// rejected; unknown variables resolve to "absent" at render time.
func compileReference(raw string) (*reference, error) {
	src := strings.TrimSpace(raw)
	ref := &reference{raw: src}

	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}

	if m := pathExpr.FindStringSubmatch(src); m != nil {
		ref.root = m[1]
		for _, seg := range pathSegment.FindAllStringSubmatch(m[2], -1) {
			for _, part := range seg[1:] {
				if part != "" {
					ref.path = append(ref.path, part)
					break
				}
			}
		}
		return ref, nil
	}

	if lit, ok := unquote(src); ok {
		ref.literal = &lit
		return ref, nil
	}

	program, err := expr.Compile(stripSigils(src), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %v", src, err)
	}
	ref.program = program
	return ref, nil
}

// resolve returns the referenced value and whether it exists. A variable
// holding nil does not exist, matching isset().
func (r *reference) resolve(scope *engine.Scope) (interface{}, bool) {
	switch {
	case r.literal != nil:
		return *r.literal, true
	case r.program != nil:
		out, err := expr.Run(r.program, scope.ToMap())
		if err != nil || out == nil {
			return nil, false
		}
		return out, true
	}

	current, ok := scope.Get(r.root)
	if !ok || current == nil {
		return nil, false
	}
	for _, key := range r.path {
		current, ok = index(current, key)
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func (r *reference) String() string {
	return r.raw
}

func index(container interface{}, key string) (interface{}, bool) {
	if coerce.IsMap(container) {
		m, err := coerce.ToMap(container)
		if err != nil {
			return nil, false
		}
		val, ok := m[key]
		return val, ok
	}
	if _, isString := container.(string); isString {
		return nil, false
	}
	list, err := coerce.ToSlice(container)
	if err != nil {
		return nil, false
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(list) {
		return nil, false
	}
	return list[i], true
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", false
	}
	inner := s[1 : len(s)-1]
	// 'a' . 'b' is two literals, not one.
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' {
			i++
			continue
		}
		if inner[i] == q {
			return "", false
		}
	}
	return strings.NewReplacer(`\`+string(q), string(q), `\\`, `\`).Replace(inner), true
}

// stripSigils drops the $ in front of identifiers outside string literals so
// $user.admin ? 'a' : 'b' becomes a valid expr-lang program.
func stripSigils(src string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '$' && i+1 < len(src) && isWordByte(src[i+1]):
			// sigil
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// truthy decides @if conditions.
func truthy(val interface{}, exists bool) bool {
	if !exists {
		return false
	}
	return !coerce.IsEmpty(val)
}
