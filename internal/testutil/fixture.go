// Package testutil provides fixtures and golden-file helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Fixture is a temporary application tree.
type Fixture struct {
	// Root is the absolute path of the fixture directory
	Root string
}

// NewFixture creates an empty fixture rooted in a test temp dir.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	return &Fixture{Root: root}
}

// Path joins slash-separated rel onto the fixture root.
func (f *Fixture) Path(rel string) string {
	return filepath.Join(f.Root, filepath.FromSlash(rel))
}

// WriteFile writes content to rel, creating parent directories.
func (f *Fixture) WriteFile(t *testing.T, rel, content string) string {
	t.Helper()

	path := f.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture file: %v", err)
	}
	return path
}

// WriteTree writes every rel -> content pair in sorted order.
func (f *Fixture) WriteTree(t *testing.T, files map[string]string) {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f.WriteFile(t, name, files[name])
	}
}

// PHPClass returns the source of a file declaring one class.
func PHPClass(namespace, class string) string {
	if namespace == "" {
		return "<?php\n\nclass " + class + "\n{\n}\n"
	}
	return "<?php\n\nnamespace " + namespace + ";\n\nclass " + class + "\n{\n}\n"
}

// AppTree writes a small application with models, a component and a vendor
// package, and returns the fixture.
func AppTree(t *testing.T) *Fixture {
	t.Helper()

	f := NewFixture(t)
	f.WriteTree(t, map[string]string{
		"models/User.php":                PHPClass(`app\models`, "User"),
		"models/Post.php":                PHPClass(`app\models`, "Post"),
		"components/Cache.php":           PHPClass(`app\components`, "Cache"),
		"vendor/acme/log/src/Logger.php": PHPClass(`acme\log`, "Logger"),
		"runtime/.keep":                  "",
		"lib/NoNamespace.php":            PHPClass("", "NoNamespace"),
	})
	return f
}
