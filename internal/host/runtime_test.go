package host

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"symres/internal/errors"
	"symres/internal/slogutil"
	"symres/internal/symbols"
)

// countingExtractor wraps the real extractor and counts file reads.
type countingExtractor struct {
	inner *symbols.Extractor
	reads map[string]int
}

func (c *countingExtractor) ExtractFile(ctx context.Context, path string) ([]symbols.Declaration, error) {
	c.reads[path]++
	return c.inner.ExtractFile(ctx, path)
}

func newTestRuntime(t *testing.T) (*Runtime, *countingExtractor) {
	t.Helper()
	ex := &countingExtractor{inner: symbols.NewExtractor(), reads: map[string]int{}}
	return New(ex, slogutil.NewDiscardLogger()), ex
}

func writeSource(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIncludeDefinesDeclarations(t *testing.T) {
	rt, ex := newTestRuntime(t)
	dir := t.TempDir()
	path := writeSource(t, dir, "User.php", "<?php\nnamespace app\\models;\n\nclass User\n{\n}\n")

	if err := rt.Include(context.Background(), path); err != nil {
		t.Fatalf("Include error = %v", err)
	}

	def, ok := rt.Defined(`app\models\User`)
	if !ok {
		t.Fatal("expected app\\models\\User to be defined")
	}
	if def.Path != path || def.Kind != "class" || def.Line != 4 {
		t.Errorf("Definition = %+v", def)
	}

	// Symbol lookup is case-insensitive and ignores the leading separator.
	if _, ok := rt.Defined(`\APP\Models\user`); !ok {
		t.Error("expected case-insensitive lookup to succeed")
	}

	// Include is once-only.
	if err := rt.Include(context.Background(), path); err != nil {
		t.Fatalf("second Include error = %v", err)
	}
	if ex.reads[path] != 1 {
		t.Errorf("file read %d times, want 1", ex.reads[path])
	}
	if !rt.Included(path) {
		t.Error("Included should report true")
	}
}

func TestIncludeMissingFile(t *testing.T) {
	rt, _ := newTestRuntime(t)
	missing := filepath.Join(t.TempDir(), "Nope.php")

	err := rt.Include(context.Background(), missing)
	if errors.CodeOf(err) != errors.SourceMissing {
		t.Fatalf("code = %q, want %q", errors.CodeOf(err), errors.SourceMissing)
	}
	if rt.Included(missing) {
		t.Error("a failed include must not be marked as included")
	}
}

func TestDefineRedeclared(t *testing.T) {
	rt, _ := newTestRuntime(t)

	if err := rt.Define(Definition{Symbol: "A", Path: "/one.php"}); err != nil {
		t.Fatalf("Define error = %v", err)
	}
	if err := rt.Define(Definition{Symbol: "A", Path: "/one.php"}); err != nil {
		t.Errorf("same-file redefine should be a no-op, got %v", err)
	}
	err := rt.Define(Definition{Symbol: "a", Path: "/two.php"})
	if errors.CodeOf(err) != errors.SymbolRedeclared {
		t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.SymbolRedeclared)
	}
}

func TestRequireRunsHooksInOrder(t *testing.T) {
	rt, _ := newTestRuntime(t)
	var calls []string

	rt.Register(HookFunc(func(ctx context.Context, symbol string) {
		calls = append(calls, "second")
	}), false)
	rt.Register(HookFunc(func(ctx context.Context, symbol string) {
		calls = append(calls, "first")
		_ = rt.Define(Definition{Symbol: symbol, Kind: "class", Path: "/virtual.php"})
	}), true)

	if rt.Hooks() != 2 {
		t.Fatalf("Hooks() = %d, want 2", rt.Hooks())
	}

	def, err := rt.Require(context.Background(), `\app\Thing`)
	if err != nil {
		t.Fatalf("Require error = %v", err)
	}
	if def.Symbol != `app\Thing` {
		t.Errorf("Symbol = %q", def.Symbol)
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Errorf("calls = %v, want only the prepended hook", calls)
	}

	// Once defined, hooks are not consulted again.
	if _, err := rt.Require(context.Background(), `app\Thing`); err != nil {
		t.Fatalf("second Require error = %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("hooks ran again for a defined symbol: %v", calls)
	}
}

func TestRequireUndefined(t *testing.T) {
	rt, _ := newTestRuntime(t)
	called := 0
	rt.Register(HookFunc(func(ctx context.Context, symbol string) { called++ }), false)

	_, err := rt.Require(context.Background(), "Ghost")
	if errors.CodeOf(err) != errors.UndefinedSymbol {
		t.Fatalf("code = %q, want %q", errors.CodeOf(err), errors.UndefinedSymbol)
	}
	if called != 1 {
		t.Errorf("hook called %d times, want 1", called)
	}
}

func TestRequireCancelled(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.Register(HookFunc(func(ctx context.Context, symbol string) {
		t.Error("hook should not run after cancellation")
	}), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rt.Require(ctx, "X"); err == nil {
		t.Error("expected context error")
	}
}

func TestDefinitionsSorted(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_ = rt.Define(Definition{Symbol: "b\\B", Path: "/b.php"})
	_ = rt.Define(Definition{Symbol: "a\\A", Path: "/a.php"})

	defs := rt.Definitions()
	if len(defs) != 2 || defs[0].Symbol != "a\\A" || defs[1].Symbol != "b\\B" {
		t.Errorf("Definitions() = %+v", defs)
	}
}

// slowExtractor blocks every read until release is closed.
type slowExtractor struct {
	started chan struct{}
	release chan struct{}
	reads   atomic.Int32
}

func (s *slowExtractor) ExtractFile(ctx context.Context, path string) ([]symbols.Declaration, error) {
	if s.reads.Add(1) == 1 {
		close(s.started)
	}
	<-s.release
	return []symbols.Declaration{{Name: `app\User`, Kind: "class", Path: path, Line: 3}}, nil
}

func TestConcurrentRequireWaitsForInclude(t *testing.T) {
	ex := &slowExtractor{started: make(chan struct{}), release: make(chan struct{})}
	rt := New(ex, slogutil.NewDiscardLogger())
	path := filepath.Join(t.TempDir(), "User.php")
	rt.Register(HookFunc(func(ctx context.Context, symbol string) {
		_ = rt.Include(ctx, path)
	}), false)

	ctx := context.Background()
	errs := make([]error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = rt.Require(ctx, `app\User`)
	}()
	<-ex.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = rt.Require(ctx, `app\User`)
	}()
	time.Sleep(20 * time.Millisecond)
	close(ex.release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Require #%d error = %v", i, err)
		}
	}
	if got := ex.reads.Load(); got != 1 {
		t.Errorf("file read %d times, want 1", got)
	}
}

func TestIncludeRedeclaredDefinesNothing(t *testing.T) {
	rt, ex := newTestRuntime(t)
	dir := t.TempDir()

	if err := rt.Define(Definition{Symbol: `app\B`, Kind: "class", Path: "/elsewhere.php"}); err != nil {
		t.Fatalf("Define error = %v", err)
	}
	path := writeSource(t, dir, "Pair.php", "<?php\nnamespace app;\n\nclass A\n{\n}\n\nclass B\n{\n}\n")

	for i := 0; i < 2; i++ {
		err := rt.Include(context.Background(), path)
		if errors.CodeOf(err) != errors.SymbolRedeclared {
			t.Fatalf("attempt %d: code = %q, want %q", i, errors.CodeOf(err), errors.SymbolRedeclared)
		}
	}
	if _, ok := rt.Defined(`app\A`); ok {
		t.Error("app\\A should not be defined by a failed include")
	}
	if rt.Included(path) {
		t.Error("a failed include must not be marked as included")
	}
	if ex.reads[path] != 2 {
		t.Errorf("file read %d times, want 2", ex.reads[path])
	}
}
