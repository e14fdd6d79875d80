package slots

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"reflect"
	"strings"

	"vueblade/pkg/engine"
	"vueblade/pkg/fastjson"
	"vueblade/pkg/utils/coerce"
)

// ErrUnbalancedDirective is returned when @endvue has no open @vue to close.
var ErrUnbalancedDirective = errors.New("cannot end a vue without first starting one")

// ComponentSpec is the render-time shape of a @vue argument.
type ComponentSpec interface {
	componentSpec()
}

// Absent means the argument did not resolve to a usable value. Nothing is
// emitted for either tag.
type Absent struct{}

// NameOnly is a bare component name.
type NameOnly struct {
	Name string
}

// Described is a map argument: "is" names the component and "data", when
// present and non-empty, is serialized into the data attribute.
type Described struct {
	Is      string
	Data    interface{}
	HasData bool
}

func (Absent) componentSpec()    {}
func (NameOnly) componentSpec()  {}
func (Described) componentSpec() {}

// VueOptions tunes the markup emitted by @vue.
type VueOptions struct {
	// Legacy emits <component is="x" inline-template> for string arguments
	// only: no v-cloak and no map/data support.
	Legacy bool
}

// vueTag is shared by the vue.open node and the vue.close node it pairs
// with, so both evaluate the same argument.
type vueTag struct {
	ref    *reference
	legacy bool
}

// VueDirective tracks @vue / @endvue nesting for one compilation pass.
type VueDirective struct {
	opts     VueOptions
	pending  []*vueTag
	maxDepth int
}

func NewVueDirective(opts VueOptions) *VueDirective {
	return &VueDirective{opts: opts}
}

// VueExtension returns a factory for Compiler.Extend.
func VueExtension(opts VueOptions) func() BladeDirective {
	return func() BladeDirective {
		return NewVueDirective(opts)
	}
}

func (d *VueDirective) OpeningTag() string { return "vue" }

func (d *VueDirective) ClosingTag() string { return "endvue" }

// OpeningHandler records expr and returns a node that decides at render
// time whether, and which, <component> tag to write.
func (d *VueDirective) OpeningHandler(expr string) (*engine.Node, error) {
	ref, err := compileReference(expr)
	if err != nil {
		return nil, err
	}

	tag := &vueTag{ref: ref, legacy: d.opts.Legacy}
	d.pending = append(d.pending, tag)
	if len(d.pending) > d.maxDepth {
		d.maxDepth = len(d.pending)
	}

	return &engine.Node{Name: "vue.open", Value: tag}, nil
}

// ClosingHandler pairs with the innermost open @vue. Any argument is
// ignored.
func (d *VueDirective) ClosingHandler(expr string) (*engine.Node, error) {
	if len(d.pending) == 0 {
		return nil, ErrUnbalancedDirective
	}

	last := len(d.pending) - 1
	tag := d.pending[last]
	d.pending[last] = nil
	d.pending = d.pending[:last]

	return &engine.Node{Name: "vue.close", Value: tag}, nil
}

// Pending is the number of @vue tags still waiting for their @endvue.
func (d *VueDirective) Pending() int {
	return len(d.pending)
}

// MaxDepth is the deepest nesting seen so far in this pass.
func (d *VueDirective) MaxDepth() int {
	return d.maxDepth
}

// classify maps a resolved argument to its ComponentSpec. Unsupported
// shapes are Absent.
func classify(val interface{}, exists bool, legacy bool) ComponentSpec {
	if !exists || isNil(val) {
		return Absent{}
	}

	if name, ok := componentName(val); ok {
		return NameOnly{Name: strings.Trim(name, "()")}
	}
	if legacy || !coerce.IsMap(val) {
		return Absent{}
	}

	m, err := coerce.ToMap(val)
	if err != nil {
		return Absent{}
	}
	is, ok := componentName(m["is"])
	if !ok || is == "" {
		return Absent{}
	}

	data, hasData := m["data"]
	return Described{
		Is:      is,
		Data:    data,
		HasData: hasData && !coerce.IsEmpty(data),
	}
}

func componentName(val interface{}) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		if isNil(v) {
			return "", false
		}
		return v.String(), true
	}
	return "", false
}

// isNil also catches typed nils boxed in an interface.
func isNil(val interface{}) bool {
	if val == nil {
		return true
	}
	switch rv := reflect.ValueOf(val); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func openingTag(spec ComponentSpec, legacy bool) (string, error) {
	cloak := " v-cloak"
	if legacy {
		cloak = ""
	}

	switch s := spec.(type) {
	case Absent:
		return "", nil
	case NameOnly:
		return fmt.Sprintf(`<component is="%s" inline-template%s>`, html.EscapeString(s.Name), cloak), nil
	case Described:
		if !s.HasData {
			return fmt.Sprintf(`<component is="%s" inline-template%s>`, html.EscapeString(s.Is), cloak), nil
		}
		payload, err := fastjson.MarshalNoEscape(s.Data)
		if err != nil {
			return "", fmt.Errorf("vue: encode data for %q: %w", s.Is, err)
		}
		return fmt.Sprintf(`<component is="%s" data="JSON.parse(decodeURIComponent('%s'))" inline-template%s>`,
			html.EscapeString(s.Is), rawURLEncode(string(payload)), cloak), nil
	}
	return "", fmt.Errorf("vue: unknown component spec %T", spec)
}

func closingTag(spec ComponentSpec) string {
	if _, ok := spec.(Absent); ok {
		return ""
	}
	return "</component>"
}

// rawURLEncode percent-encodes s per RFC 3986: spaces become %20 and only
// A-Z a-z 0-9 - _ . ~ are left alone.
func rawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (t *vueTag) spec(scope *engine.Scope) ComponentSpec {
	val, exists := t.ref.resolve(scope)
	return classify(val, exists, t.legacy)
}

func vueTagFrom(node *engine.Node) (*vueTag, error) {
	tag, ok := node.Value.(*vueTag)
	if !ok || tag == nil {
		return nil, fmt.Errorf("%s: node carries %T, want a compiled @vue argument", node.Name, node.Value)
	}
	return tag, nil
}

func RegisterVueSlots(eng *engine.Engine) {
	eng.Register("vue.open", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		tag, err := vueTagFrom(node)
		if err != nil {
			return err
		}
		out, err := openingTag(tag.spec(scope), tag.legacy)
		if err != nil {
			return err
		}
		_, err = io.WriteString(engine.WriterFrom(ctx), out)
		return err
	}, engine.SlotMeta{
		Description: "Opens a <component> wrapper when the @vue argument resolves to a name or an {is, data} map.",
		Example:     "@vue($widget)",
	})

	eng.Register("vue.close", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		tag, err := vueTagFrom(node)
		if err != nil {
			return err
		}
		_, err = io.WriteString(engine.WriterFrom(ctx), closingTag(tag.spec(scope)))
		return err
	}, engine.SlotMeta{
		Description: "Closes the <component> opened by the paired @vue, re-checking that same argument.",
		Example:     "@endvue",
	})
}
