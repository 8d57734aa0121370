package testutil

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// RootPlaceholder replaces the fixture root in normalized output.
const RootPlaceholder = "$ROOT"

// volatileFields are dropped before golden comparison.
var volatileFields = map[string]bool{
	"beginTime":  true,
	"digest":     true,
	"runId":      true,
	"startedAt":  true,
	"finishedAt": true,
}

// MarshalNormalized round-trips data through JSON, drops volatile fields,
// replaces the fixture root and returns indented JSON with a trailing
// newline. Object keys come out sorted.
func MarshalNormalized(t *testing.T, fixture *Fixture, data any) []byte {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}

	root := ""
	if fixture != nil {
		root = fixture.Root
	}
	v = normalizeValue(v, root)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return buf.Bytes()
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if volatileFields[k] {
				continue
			}
			out[k] = normalizeValue(item, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, root)
		}
		return out
	case string:
		return NormalizePath(val, root)
	default:
		return v
	}
}

// NormalizePath replaces root with RootPlaceholder and turns the rest of a
// path under root into slash form. Strings outside root are unchanged, so
// namespace separators survive.
func NormalizePath(s, root string) string {
	if root == "" || !strings.Contains(s, root) {
		return s
	}
	s = strings.ReplaceAll(s, root, RootPlaceholder)
	if filepath.Separator != '/' {
		s = strings.ReplaceAll(s, string(filepath.Separator), "/")
	}
	return s
}
