package slogutil

import (
	"io"
	"log/slog"
	"path/filepath"

	"symres/internal/config"
	"symres/internal/paths"
)

// LoggerFactory builds loggers from the logging config.
// Precedence for the level: CLI flags > config > default (info).
type LoggerFactory struct {
	basePath string
	config   *config.Config
	cliLevel slog.Level
	cliSet   bool
	colored  bool
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. Pass cliSet=false when no
// CLI flag chose a level.
func NewLoggerFactory(basePath string, cfg *config.Config, cliLevel slog.Level, cliSet bool) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		basePath: basePath,
		config:   cfg,
		cliLevel: cliLevel,
		cliSet:   cliSet,
		closers:  make([]io.Closer, 0),
	}
}

// WithColor enables coloured level tags for human output.
func (f *LoggerFactory) WithColor(colored bool) *LoggerFactory {
	f.colored = colored
	return f
}

// Logger returns the process logger. It writes to w in the configured
// format and, when logging.file is set, also to that file with rotation.
// A file that cannot be opened is skipped with a warning on w.
func (f *LoggerFactory) Logger(w io.Writer) *slog.Logger {
	level := f.EffectiveLevel()
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if f.config.Logging.Format == "json" {
		console = slog.NewJSONHandler(w, opts)
	} else {
		console = NewLineHandler(w, opts, f.colored)
	}

	if f.config.Logging.File == "" {
		return slog.New(console)
	}

	fileHandler, err := f.fileHandler(level)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("File logging disabled", "file", f.config.Logging.File, "error", err.Error())
		return logger
	}
	return slog.New(NewTeeHandler(console, fileHandler))
}

// LogFilePath returns where file logs are written, or "" when disabled.
func (f *LoggerFactory) LogFilePath() string {
	name := f.config.Logging.File
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(paths.GetLogsDir(f.basePath), name)
}

func (f *LoggerFactory) fileHandler(level slog.Level) (slog.Handler, error) {
	path := f.LogFilePath()
	if !filepath.IsAbs(f.config.Logging.File) {
		if _, err := paths.EnsureLogsDir(f.basePath); err != nil {
			return nil, err
		}
	}

	rf, err := OpenRotatingFile(path, ParseSize(f.config.Logging.MaxSize), f.config.Logging.MaxBackups)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, rf)
	return NewLineHandler(rf, &slog.HandlerOptions{Level: level}, false), nil
}

// EffectiveLevel returns the level loggers are created with.
func (f *LoggerFactory) EffectiveLevel() slog.Level {
	if f.cliSet {
		return f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
