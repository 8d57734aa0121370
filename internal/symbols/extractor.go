// Package symbols handles qualified symbol names and extracts the class-like
// declarations (class, interface, trait, enum) a source unit defines.
package symbols

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Declaration is a class-like symbol declared by a source unit.
type Declaration struct {
	Name   string `json:"name"`   // fully qualified, no leading separator
	Kind   string `json:"kind"`   // "class", "interface", "trait", "enum"
	Path   string `json:"path"`   // file the declaration came from
	Line   int    `json:"line"`   // 1-indexed
	Source string `json:"source"` // "treesitter" or "scanner"
}

// Extractor pulls declarations out of source units.
type Extractor struct{}

// NewExtractor creates a new declaration extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads path and extracts its declarations.
func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]Declaration, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractSource(ctx, path, source)
}

// ExtractSource extracts declarations from source bytes. The tree-sitter
// parser is used when available; otherwise, or when parsing fails, a line
// scanner is used.
func (e *Extractor) ExtractSource(ctx context.Context, path string, source []byte) ([]Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if IsAvailable() {
		decls, err := parseDeclarations(ctx, path, source)
		if err == nil {
			return decls, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return scanDeclarations(path, source)
}

// ExtractDirectory walks root and extracts declarations from every file with
// the given extension. Hidden directories and directories named in skip are
// not entered. Unreadable files are skipped.
func (e *Extractor) ExtractDirectory(ctx context.Context, root, ext string, skip []string) ([]Declaration, error) {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	var all []Declaration
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipSet[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}

		decls, err := e.ExtractFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		all = append(all, decls...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
