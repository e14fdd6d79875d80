package slots

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"sync"

	"vueblade/pkg/engine"
	"vueblade/pkg/fastjson"
	"vueblade/pkg/metrics"
	"vueblade/pkg/utils/coerce"
)

// DirectiveFunc compiles one occurrence of a custom @directive. expr is the
// text between the outer parentheses, or "" when the directive has none.
type DirectiveFunc func(expr string) (*engine.Node, error)

// BladeDirective is an opening/closing directive pair with state that lives
// for one compilation pass.
type BladeDirective interface {
	OpeningTag() string
	OpeningHandler(expr string) (*engine.Node, error)
	ClosingTag() string
	ClosingHandler(expr string) (*engine.Node, error)
	// Pending reports how many openings are still waiting to be closed.
	Pending() int
}

type CompilerOptions struct {
	// Strict fails a pass that ends with an opened but unclosed extension
	// directive.
	Strict bool
}

// Compiler turns Blade source into an *engine.Node tree. It is safe for
// concurrent use; every Compile call gets its own directive instances.
type Compiler struct {
	opts CompilerOptions

	mu         sync.RWMutex
	directives map[string]DirectiveFunc
	extensions []func() BladeDirective
}

func NewCompiler(opts CompilerOptions) *Compiler {
	return &Compiler{
		opts:       opts,
		directives: make(map[string]DirectiveFunc),
	}
}

// Directive registers a stateless custom directive.
func (c *Compiler) Directive(name string, fn DirectiveFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.directives[name] = fn
}

// Extend registers a directive pair. factory is called once per pass.
func (c *Compiler) Extend(factory func() BladeDirective) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extensions = append(c.extensions, factory)
}

func (c *Compiler) Compile(src string) (*engine.Node, error) {
	return c.CompileNamed("", src)
}

// CompileNamed compiles src, using filename in diagnostics and node
// positions.
func (c *Compiler) CompileNamed(filename, src string) (*engine.Node, error) {
	p := c.newPass(filename, src)

	root, err := p.parse(src, 0)
	if err == nil {
		err = p.finish()
	}

	for _, ext := range p.extensions {
		if d, ok := ext.(interface{ MaxDepth() int }); ok {
			metrics.ObserveDirectiveDepth(d.MaxDepth())
		}
	}
	metrics.ObserveCompile(err)

	if err != nil {
		slog.Debug("blade compile failed", "file", filename, "error", err)
		return nil, err
	}
	slog.Debug("blade compiled", "file", filename, "nodes", len(root.Children))
	return root, nil
}

func (c *Compiler) newPass(filename, src string) *compilePass {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := &compilePass{
		src:      src,
		filename: filename,
		strict:   c.opts.Strict,
		handlers: make(map[string]DirectiveFunc, len(c.directives)+2*len(c.extensions)),
	}
	for name, fn := range c.directives {
		p.handlers[name] = fn
	}
	for _, factory := range c.extensions {
		ext := factory()
		p.extensions = append(p.extensions, ext)
		p.handlers[ext.OpeningTag()] = ext.OpeningHandler
		p.handlers[ext.ClosingTag()] = ext.ClosingHandler
	}
	return p
}

// compilePass is the state of one Compile call.
type compilePass struct {
	src        string
	filename   string
	strict     bool
	handlers   map[string]DirectiveFunc
	extensions []BladeDirective
}

func (p *compilePass) finish() error {
	if !p.strict {
		return nil
	}
	for _, ext := range p.extensions {
		if n := ext.Pending(); n > 0 {
			return engine.Diagnostic{
				Type:     "error",
				Message:  fmt.Sprintf("unclosed @%s (%d pending)", ext.OpeningTag(), n),
				Filename: p.filename,
				Slot:     "@" + ext.OpeningTag(),
			}
		}
	}
	return nil
}

// parse compiles content, which starts at byte offset base of p.src.
func (p *compilePass) parse(content string, base int) (*engine.Node, error) {
	root := &engine.Node{
		Name:     "do",
		Filename: p.filename,
	}

	pos := 0
	length := len(content)

	for pos < length {
		nextTag := strings.IndexAny(content[pos:], "@{")
		if nextTag == -1 {
			root.Append(p.textNode(content[pos:], base+pos))
			break
		}

		offset := pos + nextTag
		if offset > pos {
			root.Append(p.textNode(content[pos:offset], base+pos))
		}
		pos = offset
		rest := content[pos:]

		switch {
		case strings.HasPrefix(rest, "{{--"):
			end := strings.Index(rest, "--}}")
			if end == -1 {
				pos = length
			} else {
				pos += end + 4
			}

		case strings.HasPrefix(rest, "{!!"):
			end := strings.Index(rest, "!!}")
			if end == -1 {
				root.Append(p.textNode("{!!", base+pos))
				pos += 3
				continue
			}
			node, err := p.echoNode("__native_write", rest[3:end], base+pos)
			if err != nil {
				return nil, err
			}
			root.Append(node)
			pos += end + 3

		case strings.HasPrefix(rest, "{{"):
			end := strings.Index(rest, "}}")
			if end == -1 {
				root.Append(p.textNode("{{", base+pos))
				pos += 2
				continue
			}
			node, err := p.echoNode("__native_write_safe", rest[2:end], base+pos)
			if err != nil {
				return nil, err
			}
			root.Append(node)
			pos += end + 2

		case rest[0] == '{':
			root.Append(p.textNode("{", base+pos))
			pos++

		default:
			n, err := p.directive(root, content, pos, base)
			if err != nil {
				return nil, err
			}
			pos += n
		}
	}

	return root, nil
}

// directive handles the '@' at content[pos] and returns how many bytes it
// consumed.
func (p *compilePass) directive(root *engine.Node, content string, pos, base int) (int, error) {
	rest := content[pos:]
	abs := base + pos

	// @{{ name }} is left for the client-side framework.
	if strings.HasPrefix(rest, "@{{") {
		end := strings.Index(rest, "}}")
		if end == -1 {
			root.Append(p.textNode("@", abs))
			return 1, nil
		}
		root.Append(p.textNode(rest[1:end+2], abs))
		return end + 2, nil
	}

	// @@name escapes a directive.
	if strings.HasPrefix(rest, "@@") {
		name := readIdent(rest[2:])
		if name == "" {
			root.Append(p.textNode("@@", abs))
			return 2, nil
		}
		root.Append(p.textNode("@"+name, abs))
		return 2 + len(name), nil
	}

	name := readIdent(rest[1:])
	// foo@bar.com is text.
	if name == "" || (abs > 0 && isWordByte(p.src[abs-1])) {
		root.Append(p.textNode("@"+name, abs))
		return 1 + len(name), nil
	}

	consumed := 1 + len(name)
	expr, hasArgs, argLen := directiveArgs(rest[consumed:])

	if fn, ok := p.handlers[name]; ok {
		node, err := fn(expr)
		if err != nil {
			return 0, p.errorAt(abs, "@"+name, err)
		}
		if node != nil {
			p.place(node, abs)
			root.Append(node)
		}
		return consumed + argLen, nil
	}

	switch name {
	case "isset", "if":
		if !hasArgs {
			break
		}
		blockStart := pos + consumed + argLen
		node, n, err := p.block(name, expr, content[blockStart:], base+blockStart, abs)
		if err != nil {
			return 0, err
		}
		root.Append(node)
		return consumed + argLen + n, nil

	case "json":
		if !hasArgs {
			break
		}
		ref, err := compileReference(expr)
		if err != nil {
			return 0, p.errorAt(abs, "@json", err)
		}
		node := &engine.Node{Name: "json", Value: ref}
		p.place(node, abs)
		root.Append(node)
		return consumed + argLen, nil

	case "include":
		if !hasArgs {
			break
		}
		node, err := p.includeNode(expr)
		if err != nil {
			return 0, p.errorAt(abs, "@include", err)
		}
		p.place(node, abs)
		root.Append(node)
		return consumed + argLen, nil

	case "endisset", "endif", "else":
		return 0, p.errorAt(abs, "@"+name, fmt.Errorf("unexpected @%s", name))
	}

	root.Append(p.textNode("@"+name, abs))
	return consumed, nil
}

// block compiles an @isset or @if body. s starts right after the argument
// list; the returned length includes the closing directive.
func (p *compilePass) block(name, expr, s string, base, abs int) (*engine.Node, int, error) {
	ref, err := compileReference(expr)
	if err != nil {
		return nil, 0, p.errorAt(abs, "@"+name, err)
	}

	node := &engine.Node{Name: name, Value: ref}
	p.place(node, abs)

	if name == "isset" {
		end := findEndBlock(s, "isset", "endisset")
		if end == -1 {
			return nil, 0, p.errorAt(abs, "@isset", fmt.Errorf("unclosed @isset"))
		}
		body, err := p.parse(s[:end], base)
		if err != nil {
			return nil, 0, err
		}
		node.Append(body)
		return node, end + len("@endisset"), nil
	}

	end, kind := findEndIf(s)
	if end == -1 {
		return nil, 0, p.errorAt(abs, "@if", fmt.Errorf("unclosed @if"))
	}
	then, err := p.parse(s[:end], base)
	if err != nil {
		return nil, 0, err
	}
	node.Append(then)

	if kind == "endif" {
		return node, end + len("@endif"), nil
	}

	elseStart := end + len("@else")
	elseEnd := findEndBlock(s[elseStart:], "if", "endif")
	if elseEnd == -1 {
		return nil, 0, p.errorAt(abs, "@if", fmt.Errorf("unclosed @if"))
	}
	otherwise, err := p.parse(s[elseStart:elseStart+elseEnd], base+elseStart)
	if err != nil {
		return nil, 0, err
	}
	node.Append(otherwise)
	return node, elseStart + elseEnd + len("@endif"), nil
}

// includeTarget is the compiled argument of @include('view', $data).
type includeTarget struct {
	view string
	data *reference
}

func (p *compilePass) includeNode(expr string) (*engine.Node, error) {
	args := splitBladeArgs(expr)
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("@include expects a view name and optional data")
	}
	view, ok := unquote(strings.TrimSpace(args[0]))
	if !ok || view == "" {
		return nil, fmt.Errorf("@include view name must be a quoted string")
	}

	target := &includeTarget{view: view}
	if len(args) == 2 {
		ref, err := compileReference(args[1])
		if err != nil {
			return nil, err
		}
		target.data = ref
	}
	return &engine.Node{Name: "view.include", Value: target}, nil
}

func (p *compilePass) echoNode(name, raw string, abs int) (*engine.Node, error) {
	ref, err := compileReference(raw)
	if err != nil {
		return nil, p.errorAt(abs, "echo", err)
	}
	node := &engine.Node{Name: name, Value: ref}
	p.place(node, abs)
	return node, nil
}

func (p *compilePass) textNode(text string, abs int) *engine.Node {
	node := &engine.Node{Name: "__native_text", Value: text}
	p.place(node, abs)
	return node
}

func (p *compilePass) place(node *engine.Node, abs int) {
	node.Filename = p.filename
	node.Line, node.Col = lineCol(p.src, abs)
}

func (p *compilePass) errorAt(abs int, slot string, err error) error {
	line, col := lineCol(p.src, abs)
	return engine.Diagnostic{
		Type:     "error",
		Message:  err.Error(),
		Filename: p.filename,
		Line:     line,
		Col:      col,
		Slot:     slot,
		Err:      err,
	}
}

func lineCol(src string, abs int) (int, int) {
	if abs > len(src) {
		abs = len(src)
	}
	before := src[:abs]
	line := strings.Count(before, "\n") + 1
	col := abs - strings.LastIndexByte(before, '\n')
	return line, col
}

func readIdent(s string) string {
	i := 0
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return s[:i]
}

// directiveArgs looks for an argument list after a directive name. Spaces
// and tabs before the '(' are consumed only when a list follows.
func directiveArgs(s string) (expr string, ok bool, consumed int) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i >= len(s) || s[i] != '(' {
		return "", false, 0
	}
	end := findBalancedParen(s[i:])
	if end == -1 {
		return "", false, 0
	}
	return s[i+1 : i+end], true, i + end + 1
}

// findBalancedParen returns the index of the ')' closing the first '(' in
// s, ignoring parentheses inside quoted strings.
func findBalancedParen(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			if depth > 0 {
				quote = c
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findEndBlock returns the offset of the @close matching an already opened
// @open, respecting nesting.
func findEndBlock(s, open, close string) int {
	depth := 0
	pos := 0
	for pos < len(s) {
		at := strings.IndexByte(s[pos:], '@')
		if at == -1 {
			return -1
		}
		pos += at
		if strings.HasPrefix(s[pos:], "@@") {
			pos += 2
			continue
		}
		name := readIdent(s[pos+1:])
		switch {
		case name == "" || (pos > 0 && isWordByte(s[pos-1])):
		case name == open:
			depth++
		case name == close:
			if depth == 0 {
				return pos
			}
			depth--
		}
		pos += 1 + len(name)
	}
	return -1
}

// findEndIf finds the @else or @endif belonging to the current @if.
func findEndIf(s string) (int, string) {
	depth := 0
	pos := 0
	for pos < len(s) {
		at := strings.IndexByte(s[pos:], '@')
		if at == -1 {
			return -1, ""
		}
		pos += at
		if strings.HasPrefix(s[pos:], "@@") {
			pos += 2
			continue
		}
		name := readIdent(s[pos+1:])
		switch {
		case name == "" || (pos > 0 && isWordByte(s[pos-1])):
		case name == "if":
			depth++
		case name == "endif":
			if depth == 0 {
				return pos, "endif"
			}
			depth--
		case name == "else":
			if depth == 0 {
				return pos, "else"
			}
		}
		pos += 1 + len(name)
	}
	return -1, ""
}

// splitBladeArgs splits on top level commas, leaving commas inside quotes
// and brackets alone.
func splitBladeArgs(s string) []string {
	var args []string
	depth := 0
	last := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" || len(args) > 0 {
		args = append(args, tail)
	}
	return args
}

func RegisterBladeSlots(eng *engine.Engine) {
	eng.Register("__native_text", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		text, _ := node.Value.(string)
		_, err := io.WriteString(engine.WriterFrom(ctx), text)
		return err
	}, engine.SlotMeta{Description: "Internal literal text for native blade"})

	eng.Register("__native_write", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		val, ok := resolveNode(node, scope)
		if !ok {
			return nil
		}
		_, err := io.WriteString(engine.WriterFrom(ctx), coerce.ToString(val))
		return err
	}, engine.SlotMeta{Description: "Internal write for native blade", Example: "{!! $html !!}"})

	eng.Register("__native_write_safe", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		val, ok := resolveNode(node, scope)
		if !ok {
			return nil
		}
		_, err := io.WriteString(engine.WriterFrom(ctx), html.EscapeString(coerce.ToString(val)))
		return err
	}, engine.SlotMeta{Description: "Internal safe write for native blade", Example: "{{ $title }}"})

	eng.Register("isset", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		val, ok := resolveNode(node, scope)
		if !ok || val == nil || len(node.Children) == 0 {
			return nil
		}
		return eng.Execute(ctx, node.Children[0], scope)
	}, engine.SlotMeta{Description: "Renders the body when the variable is set", Example: "@isset($user) ... @endisset"})

	eng.Register("if", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		val, ok := resolveNode(node, scope)
		if truthy(val, ok) {
			if len(node.Children) > 0 {
				return eng.Execute(ctx, node.Children[0], scope)
			}
			return nil
		}
		if len(node.Children) > 1 {
			return eng.Execute(ctx, node.Children[1], scope)
		}
		return nil
	}, engine.SlotMeta{Description: "Conditional block", Example: "@if($user.admin) ... @else ... @endif"})

	eng.Register("json", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		val, _ := resolveNode(node, scope)
		b, err := fastjson.Marshal(val)
		if err != nil {
			return fmt.Errorf("@json: %w", err)
		}
		_, err = engine.WriterFrom(ctx).Write(b)
		return err
	}, engine.SlotMeta{Description: "Writes a value as JSON", Example: "@json($items)"})
}

func resolveNode(node *engine.Node, scope *engine.Scope) (interface{}, bool) {
	ref, ok := node.Value.(*reference)
	if !ok || ref == nil {
		return nil, false
	}
	return ref.resolve(scope)
}

// Render executes a compiled tree against data, writing to w.
func Render(ctx context.Context, eng *engine.Engine, root *engine.Node, data map[string]interface{}, w io.Writer) error {
	scope := engine.NewScopeFrom(data)
	return eng.Execute(engine.WithWriter(ctx, w), root, scope)
}
