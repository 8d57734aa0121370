package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden controls whether golden files should be updated.
// Use: go test ./... -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// GoldenPath returns testdata/golden/<name>.json relative to the package
// under test.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name+".json")
}

// CompareGolden compares got against the golden file, failing with a diff on
// mismatch. Data is normalized against the fixture first. With -update the
// golden file is rewritten instead.
func CompareGolden(t *testing.T, fixture *Fixture, name string, got any) {
	t.Helper()

	normalized := MarshalNormalized(t, fixture, got)
	goldenPath := GoldenPath(name)

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, normalized, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, string(normalized), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, lineDiff(string(expected), string(normalized), goldenPath), t.Name())
	}
}

// lineDiff lists differing lines side by side.
func lineDiff(expected, got, path string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	expectedLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")
	n := len(expectedLines)
	if len(gotLines) > n {
		n = len(gotLines)
	}
	for i := 0; i < n; i++ {
		var e, g string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if e == g {
			continue
		}
		fmt.Fprintf(&buf, "@@ line %d @@\n-%s\n+%s\n", i+1, e, g)
	}
	return buf.String()
}
