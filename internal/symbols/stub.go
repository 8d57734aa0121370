//go:build !cgo

package symbols

import (
	"context"
	"errors"
)

// IsAvailable returns whether tree-sitter parsing is available.
func IsAvailable() bool {
	return false
}

func parseDeclarations(ctx context.Context, path string, source []byte) ([]Declaration, error) {
	return nil, errors.New("tree-sitter requires cgo")
}
