package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
)

type HandlerFunc func(ctx context.Context, node *Node, scope *Scope) error

// SlotMeta documents a render slot for `vueblade slots`.
type SlotMeta struct {
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

type Engine struct {
	Registry map[string]HandlerFunc
	Docs     map[string]SlotMeta
}

func NewEngine() *Engine {
	return &Engine{
		Registry: make(map[string]HandlerFunc),
		Docs:     make(map[string]SlotMeta),
	}
}

func (e *Engine) Register(name string, fn HandlerFunc, meta SlotMeta) {
	e.Registry[name] = fn
	e.Docs[name] = meta
}

// Execute runs node against scope. A panic inside a slot is recovered,
// logged and returned as a Diagnostic so one broken view never takes the
// process down.
func (e *Engine) Execute(ctx context.Context, node *Node, scope *Scope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())

			slog.Error("panic recovered in executor",
				"panic", r,
				"slot", node.Name,
				"file", node.Filename,
				"line", node.Line,
				"col", node.Col,
				"stack", stack,
			)

			err = Diagnostic{
				Type:     "panic",
				Message:  fmt.Sprintf("PANIC: %v\n\nStack Trace:\n%s", r, stack),
				Filename: node.Filename,
				Line:     node.Line,
				Col:      node.Col,
				Slot:     node.Name,
			}
		}
	}()

	// Compiled trees are shared between concurrent renders, so nodes are
	// never written here. Registry is read-only once slots are registered.
	if handler, exists := e.Registry[node.Name]; exists {
		return wrapSlotError(node, handler(ctx, node, scope))
	}

	// Unnamed and "do" nodes are plain containers.
	return e.ExecuteChildren(ctx, node, scope)
}

// ExecuteChildren runs the children of node in order, stopping at the first
// error.
func (e *Engine) ExecuteChildren(ctx context.Context, node *Node, scope *Scope) error {
	for _, child := range node.Children {
		if err := e.Execute(ctx, child, scope); err != nil {
			return err
		}
	}
	return nil
}

func wrapSlotError(node *Node, err error) error {
	if err == nil {
		return nil
	}
	// Diagnostics from nested executions already carry the precise location.
	if _, ok := err.(Diagnostic); ok {
		return err
	}
	return Diagnostic{
		Type:     "error",
		Message:  err.Error(),
		Filename: node.Filename,
		Line:     node.Line,
		Col:      node.Col,
		Slot:     node.Name,
		Err:      err,
	}
}

func (e *Engine) GetDocumentation() map[string]SlotMeta {
	return e.Docs
}

func (e *Engine) GetSortedSlotNames() []string {
	keys := make([]string, 0, len(e.Docs))
	for k := range e.Docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
