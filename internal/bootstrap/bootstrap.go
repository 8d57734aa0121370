// Package bootstrap is the composition root. It records the environment,
// registers the standard and configured aliases, loads the class map from
// the configured manifests and wires the autoloader into a host runtime.
package bootstrap

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"symres/internal/alias"
	"symres/internal/autoload"
	"symres/internal/classmap"
	"symres/internal/config"
	"symres/internal/errors"
	"symres/internal/host"
	"symres/internal/symbols"
)

// Standard aliases registered before any configured ones.
const (
	AliasApp     = "@app"
	AliasRuntime = "@runtime"
	AliasVendor  = "@vendor"
)

// Environment is the read-once environment of a process.
type Environment struct {
	Name               string    `json:"name"`
	Debug              bool      `json:"debug"`
	EnableErrorHandler bool      `json:"enableErrorHandler"`
	BeginTime          time.Time `json:"beginTime"`
}

// IsProd reports whether the environment is production.
func (e Environment) IsProd() bool { return e.Name == config.EnvProd }

// IsDev reports whether the environment is development.
func (e Environment) IsDev() bool { return e.Name == config.EnvDev }

// IsTest reports whether the environment is test.
func (e Environment) IsTest() bool { return e.Name == config.EnvTest }

// App holds everything wired at startup.
type App struct {
	Config     *config.Config
	Env        Environment
	Aliases    *alias.Table
	Classes    *classmap.Map
	Runtime    *host.Runtime
	Autoloader *autoload.Autoloader
	Manifests  []*classmap.Manifest
	Logger     *slog.Logger
}

// New bootstraps an App from cfg. Any manifest that fails to load aborts
// the bootstrap.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	begin := time.Now()

	app := &App{
		Config: cfg,
		Env: Environment{
			Name:               cfg.Environment.Name,
			Debug:              cfg.Environment.Debug,
			EnableErrorHandler: cfg.Environment.EnableErrorHandler,
			BeginTime:          begin,
		},
		Aliases: alias.NewTable(),
		Classes: classmap.New(),
		Logger:  logger,
	}

	if err := app.registerAliases(); err != nil {
		return nil, err
	}
	if err := app.loadManifests(ctx); err != nil {
		return nil, err
	}

	app.Runtime = host.New(symbols.NewExtractor(), logger)
	loader, err := autoload.New(app.Aliases, app.Classes, app.Runtime, autoload.Options{
		Extension: cfg.Autoload.Extension,
		Debug:     cfg.Environment.Debug,
		CacheSize: cfg.Autoload.CacheSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	app.Autoloader = loader
	app.Runtime.Register(loader, cfg.Autoload.Prepend)

	logger.Info("Application bootstrapped",
		"env", app.Env.Name,
		"debug", app.Env.Debug,
		"aliases", app.Aliases.Len(),
		"classes", app.Classes.Len(),
		"manifests", len(app.Manifests),
		"duration", time.Since(begin),
	)
	return app, nil
}

// Aliases builds the alias table New would build without loading any
// manifest. The indexer uses it to produce the manifests New later loads.
func Aliases(cfg *config.Config, logger *slog.Logger) (*alias.Table, error) {
	app := &App{Config: cfg, Aliases: alias.NewTable(), Logger: logger}
	if err := app.registerAliases(); err != nil {
		return nil, err
	}
	return app.Aliases, nil
}

// Require returns the definition of symbol, autoloading it if needed.
func (a *App) Require(ctx context.Context, symbol string) (host.Definition, error) {
	return a.Runtime.Require(ctx, symbol)
}

func (a *App) registerAliases() error {
	if err := a.registerStandardAliases(); err != nil {
		return err
	}
	if err := a.registerConfiguredAliases(); err != nil {
		return err
	}
	return a.registerExtensionAliases()
}

// registerStandardAliases sets @app, @runtime and @vendor. Runtime and
// vendor paths may be aliases themselves or relative to the base path.
func (a *App) registerStandardAliases() error {
	a.Aliases.Set(AliasApp, a.Config.BasePath)

	runtimePath, err := a.locate(a.Config.RuntimePath, "runtime")
	if err != nil {
		return err
	}
	a.Aliases.Set(AliasRuntime, runtimePath)

	vendorPath, err := a.locate(a.Config.VendorPath, "vendor")
	if err != nil {
		return err
	}
	a.Aliases.Set(AliasVendor, vendorPath)
	return nil
}

func (a *App) locate(value, fallback string) (string, error) {
	if value == "" {
		value = fallback
	}
	resolved, err := a.Aliases.Get(value)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(a.Config.BasePath, resolved)
	}
	return resolved, nil
}

// registerConfiguredAliases registers the config aliases. Targets that are
// aliases are resolved once the alias they refer to exists, so the
// declaration order in the config does not matter.
func (a *App) registerConfiguredAliases() error {
	pending := make(map[string]string, len(a.Config.Aliases))
	for name, target := range a.Config.Aliases {
		pending[alias.Normalize(name)] = target
	}

	for len(pending) > 0 {
		progressed := false
		for _, name := range sortedKeys(pending) {
			target := pending[name]
			if alias.IsAlias(target) && blockedBy(pending, name, target) {
				continue
			}
			if err := a.Aliases.Link(name, a.relative(target)); err != nil {
				return err
			}
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			names := sortedKeys(pending)
			return errors.Newf(errors.InvalidAlias, "circular alias definitions: %s", strings.Join(names, ", "))
		}
	}
	return nil
}

// blockedBy reports whether target refers to another alias that is still
// waiting to be registered.
func blockedBy(pending map[string]string, self, target string) bool {
	for name := range pending {
		if name == self {
			continue
		}
		if target == name || strings.HasPrefix(target, name+"/") {
			return true
		}
	}
	return false
}

// registerExtensionAliases registers the aliases each extension declares,
// in extension order.
func (a *App) registerExtensionAliases() error {
	for _, ext := range a.Config.Extensions {
		for _, name := range sortedKeys(ext.Alias) {
			if err := a.Aliases.Link(name, a.relative(ext.Alias[name])); err != nil {
				return errors.New(errors.InvalidAlias, "extension "+ext.Name+": bad alias "+name, err)
			}
		}
		a.Logger.Debug("Registered extension", "name", ext.Name, "version", ext.Version, "aliases", len(ext.Alias))
	}
	return nil
}

// loadManifests loads every configured manifest into the class map, later
// manifests overriding earlier ones.
func (a *App) loadManifests(ctx context.Context) error {
	loader := classmap.NewLoader(a.Logger)
	for _, ref := range a.Config.Manifests {
		path, err := a.Aliases.Get(ref)
		if err != nil {
			return errors.New(errors.ManifestNotFound, "cannot locate manifest "+ref, err)
		}
		man, err := loader.Load(ctx, a.relative(path))
		if err != nil {
			return err
		}
		a.Classes.RegisterManifest(man)
		a.Manifests = append(a.Manifests, man)
	}
	return nil
}

// relative makes a plain relative path absolute against the base path.
// Aliases and absolute paths are returned unchanged.
func (a *App) relative(p string) string {
	if alias.IsAlias(p) || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.Config.BasePath, p)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
