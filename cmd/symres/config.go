package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"symres/internal/config"
)

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride   `json:"envOverrides,omitempty"`
	Config       map[string]interface{} `json:"config"`
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage symres configuration",
		Long:  "View symres configuration stored in .symres/config.json",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Display the current symres configuration.

Examples:
  symres config show                 # Pretty-print current config
  symres config show --format json   # Raw JSON output
  symres config show --diff          # Only show non-default values`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			if s.format == FormatJSON {
				return outputConfigJSON(s.out, s.load, showDiff)
			}
			outputConfigHuman(s.out, s.load, showDiff)
			return nil
		}),
	}
	showCmd.Flags().BoolVar(&showDiff, "diff", false, "Only show non-default values")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "List supported environment variables",
		Long:  "Display all supported SYMRES_* environment variable overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputConfigEnv(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.AddCommand(showCmd, envCmd)
	return cmd
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return m, nil
}

func outputConfigJSON(w io.Writer, result *config.LoadResult, diffOnly bool) error {
	configMap, err := toMap(result.Config)
	if err != nil {
		return err
	}

	if diffOnly {
		defaultMap, err := toMap(config.DefaultConfig())
		if err != nil {
			return err
		}
		configMap = computeDiff(configMap, defaultMap)
	}

	output, err := formatJSON(ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       configMap,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, output)
	return err
}

func outputConfigHuman(w io.Writer, result *config.LoadResult, diffOnly bool) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint("symres Configuration"))
	fmt.Fprintln(w, strings.Repeat("─", 50))

	if result.UsedDefaults {
		fmt.Fprintln(w, "Source: defaults (no config file found)")
	} else if result.ConfigPath != "" {
		fmt.Fprintf(w, "Source: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Fprintln(w, "\nEnvironment Overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Fprintf(w, "  %s=%s → %s\n", ov.EnvVar, ov.FromValue, ov.Path)
		}
	}

	fmt.Fprintln(w)

	cfg := result.Config
	defaults := config.DefaultConfig()

	if diffOnly {
		fmt.Fprintln(w, "Modified Settings (differs from defaults):")
		fmt.Fprintln(w)
		printConfigDiff(w, cfg, defaults)
	} else {
		printConfigSection(w, "version", cfg.Version, defaults.Version)
		printConfigSection(w, "basePath", cfg.BasePath, defaults.BasePath)
		printConfigSection(w, "runtimePath", valueOrDefault(cfg.RuntimePath, "@app/runtime"), "@app/runtime")
		printConfigSection(w, "vendorPath", valueOrDefault(cfg.VendorPath, "@app/vendor"), "@app/vendor")

		fmt.Fprintln(w, "\nenvironment:")
		printConfigSection(w, "  name", cfg.Environment.Name, defaults.Environment.Name)
		printConfigSection(w, "  debug", cfg.Environment.Debug, defaults.Environment.Debug)
		printConfigSection(w, "  enableErrorHandler", cfg.Environment.EnableErrorHandler, defaults.Environment.EnableErrorHandler)

		fmt.Fprintf(w, "\naliases: %d\n", len(cfg.Aliases))
		for _, name := range sortedNames(cfg.Aliases) {
			fmt.Fprintf(w, "  %s: %s\n", name, cfg.Aliases[name])
		}

		fmt.Fprintf(w, "\nmanifests: %d\n", len(cfg.Manifests))
		for _, m := range cfg.Manifests {
			fmt.Fprintf(w, "  - %s\n", m)
		}

		fmt.Fprintf(w, "\nextensions: %d\n", len(cfg.Extensions))
		for _, ext := range cfg.Extensions {
			fmt.Fprintf(w, "  - %s %s (%d aliases)\n", ext.Name, ext.Version, len(ext.Alias))
		}

		fmt.Fprintln(w, "\nautoload:")
		printConfigSection(w, "  extension", cfg.Autoload.Extension, defaults.Autoload.Extension)
		printConfigSection(w, "  prepend", cfg.Autoload.Prepend, defaults.Autoload.Prepend)
		printConfigSection(w, "  cacheSize", cfg.Autoload.CacheSize, defaults.Autoload.CacheSize)

		fmt.Fprintln(w, "\nindex:")
		printConfigSection(w, "  roots", cfg.Index.Roots, defaults.Index.Roots)
		printConfigSection(w, "  ignore", cfg.Index.Ignore, defaults.Index.Ignore)
		printConfigSection(w, "  output", valueOrDefault(cfg.Index.Output, ".symres/index.db"), ".symres/index.db")

		fmt.Fprintln(w, "\nlogging:")
		printConfigSection(w, "  level", cfg.Logging.Level, defaults.Logging.Level)
		printConfigSection(w, "  format", cfg.Logging.Format, defaults.Logging.Format)
		printConfigSection(w, "  file", valueOrDefault(cfg.Logging.File, "(none)"), "(none)")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use 'symres config show --format json' for full configuration")
	fmt.Fprintln(w, "Use 'symres config env' to see supported environment variables")
}

func printConfigSection(w io.Writer, name string, value, defaultValue interface{}) {
	modified := ""
	if !isEqual(value, defaultValue) {
		modified = color.YellowString(" (default: %v)", defaultValue)
	}
	fmt.Fprintf(w, "%s: %v%s\n", name, value, modified)
}

// printConfigDiff prints every leaf that differs from the defaults as a
// dotted path.
func printConfigDiff(w io.Writer, cfg, defaults *config.Config) {
	current, err1 := toMap(cfg)
	base, err2 := toMap(defaults)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(w, "  (unable to compute differences)")
		return
	}

	var lines []string
	flattenDiff(computeDiff(current, base), base, "", &lines)
	sort.Strings(lines)

	if len(lines) == 0 {
		fmt.Fprintln(w, "  (no modifications - using all defaults)")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
}

func flattenDiff(diff, defaults map[string]interface{}, prefix string, out *[]string) {
	for key, val := range diff {
		def := defaults[key]
		if nested, ok := val.(map[string]interface{}); ok {
			defMap, _ := def.(map[string]interface{})
			if len(defMap) > 0 {
				flattenDiff(nested, defMap, prefix+key+".", out)
				continue
			}
		}
		line := fmt.Sprintf("%s%s: %v", prefix, key, val)
		if def != nil {
			line += fmt.Sprintf(" (default: %v)", def)
		}
		*out = append(*out, line)
	}
}

type envVarInfo struct {
	name    string
	desc    string
	varType string
}

// envVarCategories documents every variable config.GetSupportedEnvVars
// returns.
var envVarCategories = []struct {
	name string
	vars []envVarInfo
}{
	{"General", []envVarInfo{
		{"SYMRES_CONFIG_PATH", "Path to config file (json, yaml or toml)", "string"},
		{"SYMRES_BASE_PATH", "Application base path, registered as @app", "string"},
	}},
	{"Environment", []envVarInfo{
		{"SYMRES_ENV", "Environment name (prod, dev, test, ...)", "string"},
		{"SYMRES_DEBUG", "Debug mode; reports namespace mismatches", "bool"},
		{"SYMRES_ENABLE_ERROR_HANDLER", "Install the error handler", "bool"},
	}},
	{"Autoload", []envVarInfo{
		{"SYMRES_AUTOLOAD_EXTENSION", "Source file extension", "string"},
		{"SYMRES_AUTOLOAD_CACHE_SIZE", "Resolution cache entries", "int"},
	}},
	{"Logging", []envVarInfo{
		{"SYMRES_LOG_LEVEL", "Log level (debug, info, warn, error)", "string"},
		{"SYMRES_LOG_FORMAT", "Log format (human, json)", "string"},
		{"SYMRES_LOG_FILE", "Log file under .symres/logs, or absolute path", "string"},
	}},
}

func outputConfigEnv(w io.Writer) {
	fmt.Fprintln(w, "Supported symres Environment Variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintln(w)

	for _, cat := range envVarCategories {
		fmt.Fprintf(w, "%s:\n", cat.name)
		for _, v := range cat.vars {
			fmt.Fprintf(w, "  %-30s %s (%s)\n", v.name, v.desc, v.varType)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Example usage:")
	fmt.Fprintln(w, "  SYMRES_DEBUG=1 symres load 'app\\models\\User'")
	fmt.Fprintln(w, "  SYMRES_LOG_LEVEL=debug symres index")
	fmt.Fprintln(w, "  SYMRES_CONFIG_PATH=/etc/symres/config.yaml symres env")
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	computeDiffRecursive(current, defaults, diff)
	return diff
}

func computeDiffRecursive(current, defaults map[string]interface{}, diff map[string]interface{}) {
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})

		if currentIsMap && defaultIsMap {
			nestedDiff := make(map[string]interface{})
			computeDiffRecursive(currentMap, defaultMap, nestedDiff)
			if len(nestedDiff) > 0 {
				diff[key] = nestedDiff
			}
		} else if fmt.Sprintf("%v", currentVal) != fmt.Sprintf("%v", defaultVal) {
			diff[key] = currentVal
		}
	}
}
