package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"vueblade/internal/slots"
	"vueblade/pkg/engine"
	"vueblade/pkg/htmlmin"
	"vueblade/pkg/metrics"

	"github.com/go-chi/chi/v5"
)

// HotRouter lets the router be swapped while the server runs.
type HotRouter struct {
	mu     sync.RWMutex
	router *chi.Mux
}

func (h *HotRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.router == nil {
		http.Error(w, "vueblade: router not ready", http.StatusServiceUnavailable)
		return
	}
	h.router.ServeHTTP(w, r)
}

func (h *HotRouter) Swap(newRouter *chi.Mux) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.router = newRouter
}

// AppContext holds the shared dependencies of the preview server and the
// CLI.
type AppContext struct {
	Config   Config
	Engine   *engine.Engine
	Compiler *slots.Compiler
	Views    *slots.ViewLoader
	Hot      *HotRouter
}

func NewAppContext(cfg Config) *AppContext {
	compiler := NewCompiler(cfg)
	views := slots.NewViewLoader(cfg.ViewsDir, compiler, cfg.Production())

	eng := engine.NewEngine()
	RegisterAllSlots(eng, views)

	return &AppContext{
		Config:   cfg,
		Engine:   eng,
		Compiler: compiler,
		Views:    views,
		Hot:      &HotRouter{},
	}
}

// RenderView renders the named view with data, minifying when configured.
func (a *AppContext) RenderView(ctx context.Context, name string, data map[string]interface{}) (string, error) {
	start := time.Now()
	out, err := a.renderView(ctx, name, data)
	label := name
	if errors.Is(err, slots.ErrViewNotFound) {
		label = metrics.UnknownView
	}
	metrics.ObserveRender(label, start, err)
	return out, err
}

func (a *AppContext) renderView(ctx context.Context, name string, data map[string]interface{}) (string, error) {
	root, err := a.Views.Load(name)
	if err != nil {
		return "", err
	}
	return a.RenderTree(ctx, root, data)
}

// RenderTree renders an already compiled tree.
func (a *AppContext) RenderTree(ctx context.Context, root *engine.Node, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := slots.Render(ctx, a.Engine, root, data, &buf); err != nil {
		return "", err
	}
	if a.Config.Minify {
		return htmlmin.HTML(buf.String()), nil
	}
	return buf.String(), nil
}

// Reload drops cached views and installs a freshly built router.
func (a *AppContext) Reload() error {
	a.Views.ClearCache()
	r, err := BuildRouter(a)
	if err != nil {
		return err
	}
	a.Hot.Swap(r)
	return nil
}
