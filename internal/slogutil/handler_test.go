package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[(\w+)\] ([^|]+?)(?: \| (.*))?$`)

// forceColor enables fatih/color for the duration of a test.
func forceColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = prev })
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestLineHandlerLayout(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Autoloaded symbol", "symbol", `app\models\User`, "path", "/srv/app/models/User.php", "loads", 3)
	logger.Info("Application bootstrapped")

	got := lines(&buf)
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(got), got)
	}

	m := linePattern.FindStringSubmatch(got[0])
	if m == nil {
		t.Fatalf("line does not match layout: %q", got[0])
	}
	if m[1] != "info" || m[2] != "Autoloaded symbol" {
		t.Errorf("level/message = %q/%q", m[1], m[2])
	}
	if want := `symbol=app\models\User path=/srv/app/models/User.php loads=3`; m[3] != want {
		t.Errorf("attrs = %q, want %q", m[3], want)
	}

	if strings.Contains(got[1], "|") {
		t.Errorf("record without attrs should have no separator: %q", got[1])
	}
}

func TestLineHandlerValueFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	begin := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logger.Info("Scanned index roots",
		"duration", 1500*time.Millisecond,
		"begin", begin,
		"debug", true,
	)

	out := buf.String()
	for _, want := range []string{"duration=1.5s", "begin=2026-03-01T12:00:00Z", "debug=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLineHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("Included source unit")
	logger.Info("Autoloaded symbol")
	logger.Warn("Duplicate declaration")
	logger.Error("Autoload failed")

	got := lines(&buf)
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], "[warn] Duplicate declaration") || !strings.Contains(got[1], "[error] Autoload failed") {
		t.Errorf("lines = %q", got)
	}
}

func TestLineHandlerColoredLevels(t *testing.T) {
	forceColor(t, true)

	tests := []struct {
		level slog.Level
		tag   string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			var colored, plain bytes.Buffer
			opts := &slog.HandlerOptions{Level: slog.LevelDebug}
			slog.New(NewLineHandler(&colored, opts, true)).Log(context.Background(), tt.level, "Registered extension")
			slog.New(NewLineHandler(&plain, opts, false)).Log(context.Background(), tt.level, "Registered extension")

			want := levelColors[tt.tag].Sprint(tt.tag)
			if !strings.Contains(want, "\x1b[") {
				t.Fatalf("colour output disabled: %q", want)
			}
			if !strings.Contains(colored.String(), "["+want+"]") {
				t.Errorf("colored line = %q, want tag %q", colored.String(), want)
			}
			if strings.Contains(plain.String(), "\x1b[") || !strings.Contains(plain.String(), "["+tt.tag+"]") {
				t.Errorf("plain line = %q", plain.String())
			}
		})
	}
}

func TestLineHandlerColorRespectsNoColor(t *testing.T) {
	forceColor(t, false)

	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, nil, true))
	logger.Warn("File logging disabled")

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("NoColor should suppress escape codes: %q", buf.String())
	}
}

func TestLineHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := NewLineHandler(&buf, nil, false)

	session := base.WithAttrs([]slog.Attr{slog.String("env", "dev")})
	scoped := session.WithAttrs([]slog.Attr{slog.String("root", "@app")})

	slog.New(base).Info("base")
	slog.New(session).Info("session", "symbols", 4)
	slog.New(scoped).Info("scoped")

	got := lines(&buf)
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(got), got)
	}
	if strings.Contains(got[0], "env=") {
		t.Errorf("WithAttrs leaked into the parent handler: %q", got[0])
	}
	if !strings.HasSuffix(got[1], "| env=dev symbols=4") {
		t.Errorf("session line = %q", got[1])
	}
	if !strings.HasSuffix(got[2], "| env=dev root=@app") {
		t.Errorf("scoped line = %q", got[2])
	}
}

func TestLineHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := NewLineHandler(&buf, nil, false)

	if h.WithGroup("") != slog.Handler(h) {
		t.Error("empty group should return the same handler")
	}

	logger := slog.New(h.WithGroup("autoload").WithGroup("cache"))
	logger.Info("Purged", "entries", 12)

	if !strings.Contains(buf.String(), "autoload.cache.entries=12") {
		t.Errorf("expected grouped key in %q", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range tests {
		if got := LevelFromString(input); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{4, false, slog.LevelDebug},
		{0, true, silent},
		{3, true, silent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestDiscardLoggerIsSilent(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not enable any level")
	}
	logger.Error("Autoload failed", "symbol", "X")
}

func TestTeeHandlerLevels(t *testing.T) {
	var console, file bytes.Buffer
	h1 := NewLineHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}, false)
	h2 := NewLineHandler(&file, &slog.HandlerOptions{Level: slog.LevelWarn}, false)

	logger := slog.New(NewTeeHandler(h1, h2)).With("env", "prod")
	logger.Info("Application bootstrapped")
	logger.Warn("Duplicate declaration")

	if got := lines(&console); len(got) != 2 {
		t.Errorf("console lines = %q", got)
	}
	got := lines(&file)
	if len(got) != 1 || !strings.Contains(got[0], "Duplicate declaration | env=prod") {
		t.Errorf("file lines = %q", got)
	}
}
