package classmap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"symres/internal/errors"
	"symres/internal/slogutil"
	"symres/internal/storage"
)

func testLogger() *slog.Logger {
	return slogutil.NewDiscardLogger()
}

func TestRegisterLookup(t *testing.T) {
	m := New()
	m.Register(`\app\models\User`, "/srv/app/models/User.php")

	got, ok := m.Lookup(`app\models\User`)
	if !ok || got != "/srv/app/models/User.php" {
		t.Errorf("Lookup = %q, %v", got, ok)
	}
	if _, ok := m.Lookup(`app\models\user`); ok {
		t.Error("Lookup should be an exact, case-sensitive match")
	}

	m.Register(`app\models\User`, "/override.php")
	got, _ = m.Lookup(`app\models\User`)
	if got != "/override.php" {
		t.Errorf("last registration should win, got %q", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestRegisterManifestLastWins(t *testing.T) {
	m := New()
	m.RegisterManifest(&Manifest{Symbols: map[string]string{"A": "/one/A.php", "B": "/one/B.php"}})
	n := m.RegisterManifest(&Manifest{Symbols: map[string]string{"A": "/two/A.php"}})
	if n != 1 {
		t.Errorf("RegisterManifest returned %d, want 1", n)
	}

	if got, _ := m.Lookup("A"); got != "/two/A.php" {
		t.Errorf("Lookup(A) = %q, want /two/A.php", got)
	}
	if got, _ := m.Lookup("B"); got != "/one/B.php" {
		t.Errorf("Lookup(B) = %q, want /one/B.php", got)
	}

	syms := m.Symbols()
	if len(syms) != 2 || syms[0] != "A" || syms[1] != "B" {
		t.Errorf("Symbols() = %v", syms)
	}
	snap := m.Snapshot()
	snap["A"] = "mutated"
	if got, _ := m.Lookup("A"); got == "mutated" {
		t.Error("Snapshot should be a copy")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path       string
		format     Format
		compressed bool
		wantErr    bool
	}{
		{"classes.json", FormatJSON, false, false},
		{"classes.JSON", FormatJSON, false, false},
		{"classes.toml", FormatTOML, false, false},
		{"classes.yml", FormatYAML, false, false},
		{"classes.yaml.zst", FormatYAML, true, false},
		{"classes.msgpack", FormatMsgpack, false, false},
		{"index.db", FormatSQLite, false, false},
		{"index.db.zst", "", false, true},
		{"classes.php", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compressed, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if errors.CodeOf(err) != errors.ManifestInvalid {
					t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.ManifestInvalid)
				}
				return
			}
			if format != tt.format || compressed != tt.compressed {
				t.Errorf("DetectFormat = %q, %v; want %q, %v", format, compressed, tt.format, tt.compressed)
			}
		})
	}
}

func TestWriteLoadEachFormat(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())
	src := &Manifest{
		Version: 1,
		Symbols: map[string]string{
			`app\models\User`:    "@app/models/User.php",
			`yii\base\Component`: "/opt/yii/base/Component.php",
			`app\Helper`:         "lib/Helper.php",
		},
	}

	for _, name := range []string{"classes.json", "classes.toml", "classes.yaml", "classes.msgpack", "classes.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Write(path, src); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			man, err := loader.Load(context.Background(), path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(man.Symbols) != 3 {
				t.Fatalf("len(Symbols) = %d, want 3", len(man.Symbols))
			}
			if got := man.Symbols[`app\models\User`]; got != "@app/models/User.php" {
				t.Errorf("alias path changed: %q", got)
			}
			if got := man.Symbols[`yii\base\Component`]; got != "/opt/yii/base/Component.php" {
				t.Errorf("absolute path changed: %q", got)
			}
			if got := man.Symbols[`app\Helper`]; got != filepath.Join(dir, "lib", "Helper.php") {
				t.Errorf("relative path = %q, want it joined to the manifest dir", got)
			}
			if len(man.Digest) != 64 {
				t.Errorf("Digest = %q, want 64 hex chars", man.Digest)
			}
		})
	}
}

func TestLoadHandWrittenTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classes.toml")
	content := `
version = 1

[symbols]
'app\models\User' = "models/User.php"
"app\\models\\Post" = "@app/models/Post.php"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	man, err := NewLoader(testLogger()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := man.Symbols[`app\models\User`]; got != filepath.Join(dir, "models", "User.php") {
		t.Errorf("User = %q", got)
	}
	if got := man.Symbols[`app\models\Post`]; got != "@app/models/Post.php" {
		t.Errorf("Post = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())
	ctx := context.Background()

	_, err := loader.Load(ctx, filepath.Join(dir, "missing.json"))
	if errors.CodeOf(err) != errors.ManifestNotFound {
		t.Errorf("missing file: code = %q, want %q", errors.CodeOf(err), errors.ManifestNotFound)
	}

	_, err = loader.Load(ctx, filepath.Join(dir, "missing.db"))
	if errors.CodeOf(err) != errors.ManifestNotFound {
		t.Errorf("missing index: code = %q, want %q", errors.CodeOf(err), errors.ManifestNotFound)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = loader.Load(ctx, bad)
	if errors.CodeOf(err) != errors.ManifestInvalid {
		t.Errorf("bad json: code = %q, want %q", errors.CodeOf(err), errors.ManifestInvalid)
	}

	future := filepath.Join(dir, "future.json")
	if err := os.WriteFile(future, []byte(`{"version": 99, "symbols": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(ctx, future); errors.CodeOf(err) != errors.ManifestInvalid {
		t.Errorf("future version: code = %q, want %q", errors.CodeOf(err), errors.ManifestInvalid)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"symbols": {"A": ""}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(ctx, empty); errors.CodeOf(err) != errors.ManifestInvalid {
		t.Errorf("empty path: code = %q, want %q", errors.CodeOf(err), errors.ManifestInvalid)
	}

	if err := Write(filepath.Join(dir, "out.db"), &Manifest{}); errors.CodeOf(err) != errors.ManifestInvalid {
		t.Errorf("Write .db: code = %q, want %q", errors.CodeOf(err), errors.ManifestInvalid)
	}
}

func TestLoadSymbolIndex(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "index.db")
	logger := testLogger()

	db, err := storage.OpenPath(dbPath, logger)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	run, err := storage.NewIndexStore(db).Replace(context.Background(), []string{"@app"}, []storage.IndexEntry{
		{Symbol: `app\models\User`, Path: "@app/models/User.php", Kind: "class", Line: 4},
		{Symbol: `app\Local`, Path: "Local.php", Kind: "class", Line: 2},
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	db.Close()

	man, err := NewLoader(logger).Load(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if man.Format != FormatSQLite {
		t.Errorf("Format = %q", man.Format)
	}
	if man.Digest != run.RunID {
		t.Errorf("Digest = %q, want run id %q", man.Digest, run.RunID)
	}
	if got := man.Symbols[`app\models\User`]; got != "@app/models/User.php" {
		t.Errorf("User = %q", got)
	}
	if got := man.Symbols[`app\Local`]; got != filepath.Join(dir, "Local.php") {
		t.Errorf("Local = %q", got)
	}
}
