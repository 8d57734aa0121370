// Package autoload resolves undefined symbols to source units and includes
// them through the host runtime.
//
// Resolution order: the class map first (exact match, values may be alias
// paths), then the alias table, using the first namespace segment as the
// alias root and the remaining segments as a relative path.
package autoload

import (
	"context"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"symres/internal/alias"
	"symres/internal/classmap"
	"symres/internal/errors"
	"symres/internal/host"
	"symres/internal/paths"
	"symres/internal/symbols"
)

// DefaultExtension is appended to alias-derived source paths.
const DefaultExtension = ".php"

// DefaultCacheSize bounds the resolution cache.
const DefaultCacheSize = 1024

// Resolution sources.
const (
	SourceClassMap = "classmap"
	SourceAlias    = "alias"
)

// Resolution describes where a symbol's source unit lives.
type Resolution struct {
	Symbol string `json:"symbol"`
	Path   string `json:"path"`
	Source string `json:"source"`
	// Alias is the registered alias used to build Path, if any.
	Alias string `json:"alias,omitempty"`
}

// Includer is the part of the host runtime the autoloader needs.
type Includer interface {
	Include(ctx context.Context, path string) error
	Defined(symbol string) (host.Definition, bool)
}

// Options configures an Autoloader.
type Options struct {
	Extension string
	// Debug enables the namespace-missing check after an include.
	Debug     bool
	CacheSize int
}

// Stats counts resolution outcomes.
type Stats struct {
	ClassMapHits int64 `json:"classmapHits"`
	AliasHits    int64 `json:"aliasHits"`
	Misses       int64 `json:"misses"`
	Loads        int64 `json:"loads"`
	CacheHits    int64 `json:"cacheHits"`
}

// Autoloader implements host.Hook.
type Autoloader struct {
	aliases  *alias.Table
	classes  *classmap.Map
	includer Includer
	opts     Options
	logger   *slog.Logger
	cache    *lru.Cache[string, target]

	classMapHits atomic.Int64
	aliasHits    atomic.Int64
	misses       atomic.Int64
	loads        atomic.Int64
	cacheHits    atomic.Int64
}

var _ host.Hook = (*Autoloader)(nil)

// New creates an autoloader over the given alias table and class map.
func New(aliases *alias.Table, classes *classmap.Map, includer Includer, opts Options, logger *slog.Logger) (*Autoloader, error) {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, target](opts.CacheSize)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to create resolution cache", err)
	}

	return &Autoloader{
		aliases:  aliases,
		classes:  classes,
		includer: includer,
		opts:     opts,
		logger:   logger,
		cache:    cache,
	}, nil
}

// Options returns the effective options.
func (a *Autoloader) Options() Options {
	return a.opts
}

// target is a cached lookup result. Path keeps its alias form, so it is
// expanded against the alias table on every resolution.
type target struct {
	path   string
	source string
}

// Resolve maps a symbol to its source location without loading it.
func (a *Autoloader) Resolve(symbol string) (Resolution, error) {
	name := symbols.Normalize(symbol)
	if name == "" {
		return Resolution{}, errors.Newf(errors.SymbolNotFound, "empty symbol name")
	}

	t, cached := a.cache.Get(name)
	if cached {
		a.cacheHits.Add(1)
	} else {
		var err error
		if t, err = a.locate(name); err != nil {
			a.misses.Add(1)
			return Resolution{}, err
		}
		a.cache.Add(name, t)
	}

	res, err := a.expand(name, t)
	if err != nil {
		a.misses.Add(1)
		return Resolution{}, err
	}
	if !cached {
		switch t.source {
		case SourceClassMap:
			a.classMapHits.Add(1)
		case SourceAlias:
			a.aliasHits.Add(1)
		}
	}
	return res, nil
}

// locate finds the unexpanded source path of name: the class map entry if
// there is one, else the alias path derived from its namespace.
func (a *Autoloader) locate(name string) (target, error) {
	if path, ok := a.classes.Lookup(name); ok {
		return target{path: path, source: SourceClassMap}, nil
	}
	if !symbols.IsQualified(name) {
		return target{}, errors.Newf(errors.SymbolNotFound,
			"symbol %s is not in the class map and has no namespace", name)
	}
	return target{path: symbols.AliasPath(name, a.opts.Extension), source: SourceAlias}, nil
}

func (a *Autoloader) expand(name string, t target) (Resolution, error) {
	res := Resolution{Symbol: name, Path: t.path, Source: t.source}
	if !alias.IsAlias(t.path) {
		return res, nil
	}

	path, err := a.aliases.Get(t.path)
	if err != nil {
		if t.source == SourceClassMap {
			return Resolution{}, errors.New(errors.SymbolNotFound,
				"class map entry for "+name+" uses an unknown alias", err)
		}
		return Resolution{}, errors.New(errors.SymbolNotFound,
			"no alias registered for the root namespace of "+name, err)
	}
	res.Path = path
	res.Alias, _ = a.aliases.Root(t.path)
	return res, nil
}

// Load resolves symbol and includes its source unit. In debug mode it also
// checks that the included file declared the symbol.
func (a *Autoloader) Load(ctx context.Context, symbol string) (Resolution, error) {
	res, err := a.Resolve(symbol)
	if err != nil {
		return Resolution{}, err
	}

	if !paths.IsRegularFile(res.Path) {
		return res, errors.Newf(errors.SourceMissing, "source file for %s does not exist: %s", res.Symbol, res.Path)
	}

	if err := a.includer.Include(ctx, res.Path); err != nil {
		return res, err
	}
	a.loads.Add(1)

	if a.opts.Debug {
		if _, ok := a.includer.Defined(res.Symbol); !ok {
			return res, errors.Newf(errors.UnknownSymbol,
				"unable to find '%s' in file: %s. Namespace missing?", res.Symbol, res.Path)
		}
	}
	return res, nil
}

// Autoload is the host hook. Failures leave the symbol undefined so the
// host reports it; they are only logged here.
func (a *Autoloader) Autoload(ctx context.Context, symbol string) {
	res, err := a.Load(ctx, symbol)
	if err == nil {
		a.logger.Debug("Autoloaded symbol",
			"symbol", res.Symbol,
			"path", res.Path,
			"source", res.Source,
		)
		return
	}

	if a.opts.Debug && errors.HasCode(err, errors.UnknownSymbol) {
		a.logger.Error("Autoload failed", "symbol", symbol, "error", err.Error())
		return
	}
	a.logger.Debug("Autoload skipped", "symbol", symbol, "error", err.Error())
}

// Purge drops cached lookups. Call it after changing the class map; alias
// changes are picked up without it.
func (a *Autoloader) Purge() {
	a.cache.Purge()
}

// Stats returns a snapshot of the counters.
func (a *Autoloader) Stats() Stats {
	return Stats{
		ClassMapHits: a.classMapHits.Load(),
		AliasHits:    a.aliasHits.Load(),
		Misses:       a.misses.Load(),
		Loads:        a.loads.Load(),
		CacheHits:    a.cacheHits.Load(),
	}
}
