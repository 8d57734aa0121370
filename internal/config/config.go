package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"symres/internal/paths"
)

// CurrentVersion is the config schema version.
const CurrentVersion = 1

// Environment names with special meaning.
const (
	EnvProd = "prod"
	EnvDev  = "dev"
	EnvTest = "test"
)

// Config represents the complete symres configuration (v1 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version" validate:"eq=1"`
	// BasePath is the application root, registered as @app. Relative values
	// are taken from the directory the config was loaded for.
	BasePath    string `json:"basePath" mapstructure:"basePath"`
	RuntimePath string `json:"runtimePath,omitempty" mapstructure:"runtimePath"`
	VendorPath  string `json:"vendorPath,omitempty" mapstructure:"vendorPath"`

	Environment EnvironmentConfig `json:"environment" mapstructure:"environment"`
	// Aliases maps alias names to paths or other aliases. Keys are
	// case-folded by the config loader and must not contain '.', which it
	// treats as a key separator.
	Aliases    map[string]string `json:"aliases" mapstructure:"aliases" validate:"dive,keys,startswith=@,min=2,endkeys,required"`
	Manifests  []string          `json:"manifests" mapstructure:"manifests" validate:"dive,required"`
	Extensions []ExtensionConfig `json:"extensions" mapstructure:"extensions" validate:"dive"`
	Autoload   AutoloadConfig    `json:"autoload" mapstructure:"autoload"`
	Index      IndexConfig       `json:"index" mapstructure:"index"`
	Logging    LoggingConfig     `json:"logging" mapstructure:"logging"`
}

// EnvironmentConfig holds the process-wide environment flags.
type EnvironmentConfig struct {
	Name               string `json:"name" mapstructure:"name" validate:"required,alphanum"`
	Debug              bool   `json:"debug" mapstructure:"debug"`
	EnableErrorHandler bool   `json:"enableErrorHandler" mapstructure:"enableErrorHandler"`
}

// IsProd reports whether the environment is production.
func (e EnvironmentConfig) IsProd() bool { return e.Name == EnvProd }

// IsDev reports whether the environment is development.
func (e EnvironmentConfig) IsDev() bool { return e.Name == EnvDev }

// IsTest reports whether the environment is test.
func (e EnvironmentConfig) IsTest() bool { return e.Name == EnvTest }

// ExtensionConfig describes an installed package and the aliases it brings.
type ExtensionConfig struct {
	Name    string            `json:"name" mapstructure:"name" validate:"required"`
	Version string            `json:"version,omitempty" mapstructure:"version"`
	Alias   map[string]string `json:"alias,omitempty" mapstructure:"alias" validate:"dive,keys,startswith=@,min=2,endkeys,required"`
}

// AutoloadConfig contains autoloader settings
type AutoloadConfig struct {
	Extension string `json:"extension" mapstructure:"extension" validate:"required,startswith=."`
	Prepend   bool   `json:"prepend" mapstructure:"prepend"`
	CacheSize int    `json:"cacheSize" mapstructure:"cacheSize" validate:"gte=1"`
}

// IndexConfig contains indexer settings
type IndexConfig struct {
	Roots  []string `json:"roots" mapstructure:"roots" validate:"min=1,dive,required"`
	Ignore []string `json:"ignore" mapstructure:"ignore"`
	// Output is where `symres index` writes; .db for a sqlite index, any
	// manifest extension otherwise. Empty means .symres/index.db.
	Output string `json:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" validate:"oneof=human json"`
	Level  string `json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	// File is a log file name under .symres/logs, or an absolute path.
	// Empty disables file logging.
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups" validate:"gte=0"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		BasePath: ".",
		Environment: EnvironmentConfig{
			Name:               EnvProd,
			Debug:              false,
			EnableErrorHandler: true,
		},
		Aliases:    map[string]string{},
		Manifests:  []string{},
		Extensions: []ExtensionConfig{},
		Autoload: AutoloadConfig{
			Extension: ".php",
			Prepend:   true,
			CacheSize: 1024,
		},
		Index: IndexConfig{
			Roots:  []string{"@app"},
			Ignore: []string{"vendor", "runtime", "node_modules", ".git"},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// EnvOverride records an environment variable that changed a config value.
type EnvOverride struct {
	EnvVar    string `json:"envVar"`
	Path      string `json:"path"`
	FromValue string `json:"value"`
}

// LoadResult is the outcome of LoadConfigWithDetails.
type LoadResult struct {
	Config       *Config       `json:"config"`
	ConfigPath   string        `json:"configPath,omitempty"`
	UsedDefaults bool          `json:"usedDefaults"`
	EnvOverrides []EnvOverride `json:"envOverrides,omitempty"`
}

// LoadConfig loads configuration from .symres/config.json
func LoadConfig(basePath string) (*Config, error) {
	result, err := LoadConfigWithDetails(basePath)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports where it came from
// and which environment variables were applied. SYMRES_CONFIG_PATH replaces
// the default .symres/config.json location.
func LoadConfigWithDetails(basePath string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v)

	configPath := os.Getenv("SYMRES_CONFIG_PATH")
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType(configType(configPath))
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(paths.GetProjectDir(basePath))
	}

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !(configPath != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if configPath != "" {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}

	result.EnvOverrides = ApplyEnvOverrides(&cfg)

	cfg.BasePath = resolveBase(basePath, cfg.BasePath)
	result.Config = &cfg

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// setDefaults mirrors DefaultConfig into viper so that a partial config file
// keeps the remaining defaults.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("basePath", d.BasePath)
	v.SetDefault("environment.name", d.Environment.Name)
	v.SetDefault("environment.debug", d.Environment.Debug)
	v.SetDefault("environment.enableErrorHandler", d.Environment.EnableErrorHandler)
	v.SetDefault("manifests", d.Manifests)
	v.SetDefault("autoload.extension", d.Autoload.Extension)
	v.SetDefault("autoload.prepend", d.Autoload.Prepend)
	v.SetDefault("autoload.cacheSize", d.Autoload.CacheSize)
	v.SetDefault("index.roots", d.Index.Roots)
	v.SetDefault("index.ignore", d.Index.Ignore)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func resolveBase(dir, base string) string {
	if base == "" {
		base = "."
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(dir, base)
	}
	return paths.Abs(base)
}

// envVar describes one supported environment override.
type envVar struct {
	name  string
	path  string
	apply func(c *Config, value string) error
}

var envVars = []envVar{
	{"SYMRES_BASE_PATH", "basePath", func(c *Config, s string) error { c.BasePath = s; return nil }},
	{"SYMRES_ENV", "environment.name", func(c *Config, s string) error { c.Environment.Name = s; return nil }},
	{"SYMRES_DEBUG", "environment.debug", func(c *Config, s string) error {
		b, err := strconv.ParseBool(s)
		c.Environment.Debug = b
		return err
	}},
	{"SYMRES_ENABLE_ERROR_HANDLER", "environment.enableErrorHandler", func(c *Config, s string) error {
		b, err := strconv.ParseBool(s)
		c.Environment.EnableErrorHandler = b
		return err
	}},
	{"SYMRES_AUTOLOAD_EXTENSION", "autoload.extension", func(c *Config, s string) error { c.Autoload.Extension = s; return nil }},
	{"SYMRES_AUTOLOAD_CACHE_SIZE", "autoload.cacheSize", func(c *Config, s string) error {
		n, err := strconv.Atoi(s)
		c.Autoload.CacheSize = n
		return err
	}},
	{"SYMRES_LOG_LEVEL", "logging.level", func(c *Config, s string) error { c.Logging.Level = s; return nil }},
	{"SYMRES_LOG_FORMAT", "logging.format", func(c *Config, s string) error { c.Logging.Format = s; return nil }},
	{"SYMRES_LOG_FILE", "logging.file", func(c *Config, s string) error { c.Logging.File = s; return nil }},
}

// ApplyEnvOverrides applies SYMRES_* variables to c and returns the ones
// that took effect. Values that fail to parse are skipped.
func ApplyEnvOverrides(c *Config) []EnvOverride {
	var applied []EnvOverride
	for _, ev := range envVars {
		value, ok := os.LookupEnv(ev.name)
		if !ok || value == "" {
			continue
		}
		trial := *c
		if err := ev.apply(&trial, value); err != nil {
			continue
		}
		*c = trial
		applied = append(applied, EnvOverride{EnvVar: ev.name, Path: ev.path, FromValue: value})
	}
	return applied
}

// GetSupportedEnvVars returns the names of every supported override,
// including SYMRES_CONFIG_PATH.
func GetSupportedEnvVars() []string {
	out := []string{"SYMRES_CONFIG_PATH"}
	for _, ev := range envVars {
		out = append(out, ev.name)
	}
	return out
}

// Save writes the configuration to .symres/config.json
func (c *Config) Save(basePath string) error {
	if _, err := paths.EnsureProjectDir(basePath); err != nil {
		return err
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(paths.GetConfigPath(basePath), data, 0644)
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{Field: fieldPath(fe.Namespace()), Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value())}
	}
	return &ConfigError{Field: "", Message: err.Error()}
}

// fieldPath turns "Config.Autoload.Extension" into "autoload.extension".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
