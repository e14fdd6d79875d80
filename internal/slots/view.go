package slots

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vueblade/pkg/engine"
	"vueblade/pkg/utils/coerce"
)

const viewExt = ".blade.html"

// ErrViewNotFound is returned when a view name has no file behind it.
var ErrViewNotFound = errors.New("view not found")

type cachedTemplate struct {
	ast     *engine.Node
	modTime time.Time
}

// ViewLoader resolves view names below a directory, compiles them and
// caches the result.
type ViewLoader struct {
	dir        string
	compiler   *Compiler
	production bool

	cache sync.Map // map[string]*cachedTemplate
}

// NewViewLoader serves views from dir. In production the cache is trusted
// without checking file modification times.
func NewViewLoader(dir string, compiler *Compiler, production bool) *ViewLoader {
	return &ViewLoader{
		dir:        dir,
		compiler:   compiler,
		production: production,
	}
}

// Path maps "emails.welcome" to <dir>/emails/welcome.blade.html.
func (l *ViewLoader) Path(name string) (string, error) {
	name = strings.TrimSuffix(name, viewExt)
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid view name %q", ErrViewNotFound, name)
	}
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator))
	return filepath.Join(l.dir, rel+viewExt), nil
}

// Load returns the compiled tree for the named view.
func (l *ViewLoader) Load(name string) (*engine.Node, error) {
	fullPath, err := l.Path(name)
	if err != nil {
		return nil, err
	}

	if cached, ok := l.cache.Load(fullPath); ok {
		ct := cached.(*cachedTemplate)
		if l.production {
			return ct.ast, nil
		}
		info, err := os.Stat(fullPath)
		if err == nil && info.ModTime().Equal(ct.modTime) {
			return ct.ast, nil
		}
	}

	return l.parseAndCache(name, fullPath)
}

func (l *ViewLoader) parseAndCache(name, fullPath string) (*engine.Node, error) {
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
		}
		return nil, err
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read view %s: %w", name, err)
	}

	ast, err := l.compiler.CompileNamed(filepath.Base(fullPath), string(content))
	if err != nil {
		return nil, err
	}

	l.cache.Store(fullPath, &cachedTemplate{
		ast:     ast,
		modTime: info.ModTime(),
	})
	return ast, nil
}

// ClearCache drops every compiled view.
func (l *ViewLoader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}

// Names lists the views below the loader directory in dotted form.
func (l *ViewLoader) Names() ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, viewExt) {
			return nil
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), viewExt)
		names = append(names, strings.ReplaceAll(rel, "/", "."))
		return nil
	})
	return names, err
}

// RegisterViewSlots wires @include to loader.
func RegisterViewSlots(eng *engine.Engine, loader *ViewLoader) {
	eng.Register("view.include", func(ctx context.Context, node *engine.Node, scope *engine.Scope) error {
		target, ok := node.Value.(*includeTarget)
		if !ok || target == nil {
			return fmt.Errorf("view.include: node carries %T", node.Value)
		}

		ast, err := loader.Load(target.view)
		if err != nil {
			return err
		}

		child := engine.NewScope(scope)
		if target.data != nil {
			val, exists := target.data.resolve(scope)
			if exists {
				data, err := coerce.ToMap(val)
				if err != nil {
					return fmt.Errorf("@include %s: data must be a map: %w", target.view, err)
				}
				for k, v := range data {
					child.Set(k, v)
				}
			}
		}
		return eng.Execute(ctx, ast, child)
	}, engine.SlotMeta{
		Description: "Renders another view with the current variables plus optional data",
		Example:     "@include('partials.card', $card)",
	})
}
