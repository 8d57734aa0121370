package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProjectLayout(t *testing.T) {
	base := filepath.Join("srv", "app")

	if got := GetProjectDir(base); got != filepath.Join(base, ".symres") {
		t.Errorf("GetProjectDir = %s", got)
	}
	if got := GetConfigPath(base); got != filepath.Join(base, ".symres", "config.json") {
		t.Errorf("GetConfigPath = %s", got)
	}
	if got := GetIndexDBPath(base); got != filepath.Join(base, ".symres", "index.db") {
		t.Errorf("GetIndexDBPath = %s", got)
	}
}

func TestEnsureProjectDir(t *testing.T) {
	base := t.TempDir()

	dir, err := EnsureProjectDir(base)
	if err != nil {
		t.Fatalf("EnsureProjectDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("Expected directory at %s", dir)
	}

	// Second call is idempotent
	if _, err := EnsureProjectDir(base); err != nil {
		t.Errorf("EnsureProjectDir second call failed: %v", err)
	}
}

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "models", "User.php")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("<?php"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if got != "models/User.php" {
		t.Errorf("Expected models/User.php, got %s", got)
	}

	// Non-existent files are canonicalized as-is
	missing := filepath.Join(root, "nope", "Missing.php")
	got, err = CanonicalizePath(missing, root)
	if err != nil {
		t.Fatalf("CanonicalizePath(missing) failed: %v", err)
	}
	if got != "nope/Missing.php" {
		t.Errorf("Expected nope/Missing.php, got %s", got)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()

	if !IsWithin(filepath.Join(root, "a", "b.php"), root) {
		t.Error("Expected nested path to be within root")
	}
	if IsWithin(filepath.Dir(root), root) {
		t.Error("Expected parent to be outside root")
	}
	if !IsWithin(filepath.Join(root, "..foo"), root) {
		t.Error("Expected ..foo (a real name) to be within root")
	}
}

func TestJoinPath(t *testing.T) {
	got := JoinPath("/srv/app", "models/User.php")
	if !strings.HasSuffix(NormalizePath(got), "/srv/app/models/User.php") {
		t.Errorf("JoinPath = %s", got)
	}
	got = JoinPath("/srv/app", `models\User.php`)
	if !strings.HasSuffix(NormalizePath(got), "models/User.php") {
		t.Errorf("JoinPath with backslashes = %s", got)
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.php")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if !IsRegularFile(file) {
		t.Error("Expected regular file")
	}
	if IsRegularFile(dir) {
		t.Error("Directory is not a regular file")
	}
	if IsRegularFile(filepath.Join(dir, "missing")) {
		t.Error("Missing path is not a regular file")
	}
}

func TestAbs(t *testing.T) {
	if got := Abs("relative/x"); !filepath.IsAbs(got) {
		t.Errorf("Abs returned non-absolute %s", got)
	}
}
