package classmap

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	burnt "github.com/BurntSushi/toml"
	"github.com/klauspost/compress/zstd"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"symres/internal/alias"
	"symres/internal/errors"
	"symres/internal/storage"
)

// CurrentVersion is the manifest schema version this package writes.
const CurrentVersion = 1

// Format identifies a manifest encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatTOML    Format = "toml"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
	// FormatSQLite is a symbol index database written by the indexer.
	FormatSQLite Format = "sqlite"
)

// compressedSuffix marks a zstd-compressed manifest, e.g. classes.json.zst.
const compressedSuffix = ".zst"

// Manifest is a static symbol -> path listing.
//
// Paths may be absolute, alias paths (@app/models/User.php) or relative to
// the manifest's own directory; Load makes relative paths absolute.
type Manifest struct {
	Version int               `json:"version" toml:"version" yaml:"version" msgpack:"version"`
	Symbols map[string]string `json:"symbols" toml:"symbols" yaml:"symbols" msgpack:"symbols"`

	Path   string `json:"-" toml:"-" yaml:"-" msgpack:"-"`
	Format Format `json:"-" toml:"-" yaml:"-" msgpack:"-"`
	Digest string `json:"-" toml:"-" yaml:"-" msgpack:"-"`
}

// DetectFormat derives the format from the file name and reports whether the
// file is zstd-compressed.
func DetectFormat(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, compressedSuffix)
	name = strings.TrimSuffix(name, compressedSuffix)

	var format Format
	switch filepath.Ext(name) {
	case ".json":
		format = FormatJSON
	case ".toml":
		format = FormatTOML
	case ".yaml", ".yml":
		format = FormatYAML
	case ".msgpack", ".mpk":
		format = FormatMsgpack
	case ".db", ".sqlite":
		format = FormatSQLite
	default:
		return "", false, errors.Newf(errors.ManifestInvalid, "unrecognised manifest format: %s", path)
	}

	if compressed && format == FormatSQLite {
		return "", false, errors.Newf(errors.ManifestInvalid, "compressed symbol index is not supported: %s", path)
	}
	return format, compressed, nil
}

// Loader reads manifests from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a manifest loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads, decodes and normalises the manifest at path.
func (l *Loader) Load(ctx context.Context, path string) (*Manifest, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New(errors.InternalError, "cannot make manifest path absolute", err)
	}

	var man *Manifest
	if format == FormatSQLite {
		man, err = l.loadIndex(ctx, absPath)
		if err != nil {
			return nil, err
		}
	} else {
		raw, err := os.ReadFile(absPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New(errors.ManifestNotFound, "manifest not found: "+path, err)
			}
			return nil, errors.New(errors.ManifestInvalid, "cannot read manifest "+path, err)
		}
		sum := blake2b.Sum256(raw)

		data := raw
		if compressed {
			if data, err = decompress(raw); err != nil {
				return nil, errors.New(errors.ManifestInvalid, "cannot decompress manifest "+path, err)
			}
		}

		man, err = Decode(data, format)
		if err != nil {
			return nil, errors.New(errors.ManifestInvalid, "cannot decode manifest "+path, err)
		}
		man.Digest = hex.EncodeToString(sum[:])
	}

	man.Path = absPath
	man.Format = format
	if err := man.resolveRelative(filepath.Dir(absPath)); err != nil {
		return nil, err
	}

	l.logger.Debug("Loaded manifest",
		"path", absPath,
		"format", string(format),
		"symbols", len(man.Symbols),
		"digest", man.Digest,
	)
	return man, nil
}

// loadIndex reads a sqlite symbol index as a manifest. The digest is the id
// of the run that produced it.
func (l *Loader) loadIndex(ctx context.Context, path string) (*Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ManifestNotFound, "symbol index not found: "+path, err)
		}
		return nil, errors.New(errors.ManifestInvalid, "cannot stat symbol index "+path, err)
	}

	db, err := storage.OpenPath(path, l.logger)
	if err != nil {
		return nil, errors.New(errors.ManifestInvalid, "cannot open symbol index "+path, err)
	}
	defer db.Close()

	store := storage.NewIndexStore(db)
	entries, err := store.All(ctx)
	if err != nil {
		return nil, errors.New(errors.ManifestInvalid, "cannot read symbol index "+path, err)
	}
	run, err := store.LatestRun(ctx)
	if err != nil {
		return nil, errors.New(errors.ManifestInvalid, "cannot read symbol index runs "+path, err)
	}

	man := &Manifest{Version: CurrentVersion, Symbols: make(map[string]string, len(entries))}
	for _, e := range entries {
		man.Symbols[e.Symbol] = e.Path
	}
	if run != nil {
		man.Digest = run.RunID
	}
	return man, nil
}

// resolveRelative makes relative paths absolute against dir. Alias and
// absolute paths are left untouched.
func (m *Manifest) resolveRelative(dir string) error {
	for symbol, p := range m.Symbols {
		if p == "" {
			return errors.Newf(errors.ManifestInvalid, "manifest %s: empty path for symbol %s", m.Path, symbol)
		}
		if alias.IsAlias(p) || filepath.IsAbs(p) {
			continue
		}
		m.Symbols[symbol] = filepath.Join(dir, filepath.FromSlash(p))
	}
	return nil
}

// Decode parses manifest bytes in the given format.
func Decode(data []byte, format Format) (*Manifest, error) {
	var man Manifest
	var err error

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &man)
	case FormatTOML:
		err = toml.Unmarshal(data, &man)
	case FormatYAML:
		err = yaml.Unmarshal(data, &man)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &man)
	default:
		return nil, fmt.Errorf("format %q cannot be decoded from bytes", format)
	}
	if err != nil {
		return nil, err
	}

	if man.Version < 1 {
		man.Version = 1
	}
	if man.Version > CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", man.Version)
	}
	if man.Symbols == nil {
		man.Symbols = map[string]string{}
	}
	return &man, nil
}

// Encode writes man to w in the given format. Map keys are emitted in
// sorted order for every format.
func Encode(w io.Writer, format Format, man *Manifest) error {
	out := Manifest{Version: man.Version, Symbols: man.Symbols}
	if out.Version == 0 {
		out.Version = CurrentVersion
	}
	if out.Symbols == nil {
		out.Symbols = map[string]string{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	case FormatTOML:
		return burnt.NewEncoder(w).Encode(out)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(out)
	default:
		return fmt.Errorf("format %q cannot be encoded to a stream", format)
	}
}

// Write encodes man to path, choosing the format (and compression) from the
// file name.
func Write(path string, man *Manifest) error {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatSQLite {
		return errors.Newf(errors.ManifestInvalid, "use the indexer to write a symbol index: %s", path)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, format, man); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	data := buf.Bytes()
	if compressed {
		if data, err = compress(data); err != nil {
			return fmt.Errorf("failed to compress manifest: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
