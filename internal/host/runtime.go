// Package host is the runtime that owns defined symbols. It includes
// source units, records the declarations they make, and calls registered
// autoload hooks when code requires a symbol that is not defined yet.
package host

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"symres/internal/errors"
	"symres/internal/symbols"
)

// Hook is invoked with the name of a symbol that is not defined. It returns
// nothing: either the symbol becomes defined as a side effect, or it stays
// undefined and the runtime reports UNDEFINED_SYMBOL itself.
type Hook interface {
	Autoload(ctx context.Context, symbol string)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, symbol string)

// Autoload calls f.
func (f HookFunc) Autoload(ctx context.Context, symbol string) { f(ctx, symbol) }

// Definition records where a symbol was declared.
type Definition struct {
	Symbol string `json:"symbol"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Line   int    `json:"line"`
}

// Extractor finds the declarations of a source unit.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) ([]symbols.Declaration, error)
}

// Runtime holds the defined-symbol table and the hook chain.
type Runtime struct {
	extractor Extractor
	logger    *slog.Logger

	mu       sync.RWMutex
	defined  map[string]Definition // keyed by symbols.Key
	included map[string]bool       // absolute file paths
	hooks    []Hook

	// inflight collapses concurrent includes of the same file.
	inflight singleflight.Group
}

// New creates a runtime that uses extractor to read source units.
func New(extractor Extractor, logger *slog.Logger) *Runtime {
	return &Runtime{
		extractor: extractor,
		logger:    logger,
		defined:   make(map[string]Definition),
		included:  make(map[string]bool),
	}
}

// Register adds a hook to the end of the chain, or to the front when
// prepend is set.
func (r *Runtime) Register(h Hook, prepend bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prepend {
		r.hooks = append([]Hook{h}, r.hooks...)
		return
	}
	r.hooks = append(r.hooks, h)
}

// Hooks returns the number of registered hooks.
func (r *Runtime) Hooks() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// Define records a declaration. Defining a symbol again from the same file
// is a no-op; from a different file it fails with SYMBOL_REDECLARED.
func (r *Runtime) Define(def Definition) error {
	def.Symbol = symbols.Normalize(def.Symbol)
	key := symbols.Key(def.Symbol)

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.defined[key]; ok {
		if prev.Path == def.Path {
			return nil
		}
		return errors.Newf(errors.SymbolRedeclared,
			"cannot declare %s in %s: already declared in %s", def.Symbol, def.Path, prev.Path)
	}
	r.defined[key] = def
	return nil
}

// Defined looks a symbol up case-insensitively.
func (r *Runtime) Defined(symbol string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defined[symbols.Key(symbol)]
	return def, ok
}

// Definitions returns every defined symbol sorted by name.
func (r *Runtime) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defined))
	for _, d := range r.defined {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Included reports whether path has already been included.
func (r *Runtime) Included(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return r.isIncluded(abs)
}

// Include reads a source unit once and defines what it declares. Including
// a file a second time does nothing. Concurrent includes of the same file
// wait for the first one and share its outcome.
//
// A file's declarations are defined together: if any of them is already
// declared elsewhere, none are defined and the file is not marked as
// included.
func (r *Runtime) Include(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.New(errors.InternalError, "cannot make include path absolute", err)
	}

	if r.isIncluded(abs) {
		return nil
	}
	_, err, _ = r.inflight.Do(abs, func() (any, error) {
		if r.isIncluded(abs) {
			return nil, nil
		}
		return nil, r.include(ctx, abs)
	})
	return err
}

func (r *Runtime) isIncluded(abs string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.included[abs]
}

func (r *Runtime) include(ctx context.Context, abs string) error {
	decls, err := r.extractor.ExtractFile(ctx, abs)
	if err != nil {
		return errors.New(errors.SourceMissing, "cannot include "+abs, err)
	}

	defs := make([]Definition, 0, len(decls))
	for _, d := range decls {
		defs = append(defs, Definition{Symbol: symbols.Normalize(d.Name), Kind: d.Kind, Path: abs, Line: d.Line})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if prev, ok := r.defined[symbols.Key(def.Symbol)]; ok && prev.Path != abs {
			return errors.Newf(errors.SymbolRedeclared,
				"cannot declare %s in %s: already declared in %s", def.Symbol, abs, prev.Path)
		}
	}
	for _, def := range defs {
		key := symbols.Key(def.Symbol)
		if _, ok := r.defined[key]; !ok {
			r.defined[key] = def
		}
	}
	r.included[abs] = true

	r.logger.Debug("Included source unit", "path", abs, "declarations", len(defs))
	return nil
}

// Require returns the definition of symbol, running the hook chain first if
// it is not defined. Hooks run in order and the chain stops as soon as one
// of them defines the symbol.
func (r *Runtime) Require(ctx context.Context, symbol string) (Definition, error) {
	if def, ok := r.Defined(symbol); ok {
		return def, nil
	}

	r.mu.RLock()
	hooks := make([]Hook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			return Definition{}, err
		}
		h.Autoload(ctx, symbols.Normalize(symbol))
		if def, ok := r.Defined(symbol); ok {
			return def, nil
		}
	}

	return Definition{}, errors.Newf(errors.UndefinedSymbol, "symbol %q not found", symbols.Normalize(symbol))
}
