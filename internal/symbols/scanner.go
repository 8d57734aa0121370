package symbols

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

const maxScanLine = 1024 * 1024

var (
	namespaceLine   = regexp.MustCompile(`^\s*namespace\s+([A-Za-z_\\][A-Za-z0-9_\\]*)\s*[;{]`)
	globalNamespace = regexp.MustCompile(`^\s*namespace\s*\{`)
	declarationLine = regexp.MustCompile(`^\s*(?:(?:abstract|final|readonly)\s+)*(class|interface|trait|enum)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// scanDeclarations is the line-oriented fallback. It understands one
// declaration per line and namespace statements in both the `;` and `{}`
// forms, and ignores comment lines. Lines longer than maxScanLine fail the
// scan.
func scanDeclarations(path string, source []byte) ([]Declaration, error) {
	var decls []Declaration
	namespace := ""
	inComment := false

	sc := bufio.NewScanner(bytes.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), maxScanLine)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)

		if inComment {
			if strings.Contains(trimmed, "*/") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "/*") {
			inComment = !strings.Contains(trimmed, "*/")
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := namespaceLine.FindStringSubmatch(text); m != nil {
			namespace = Normalize(m[1])
			continue
		}
		if globalNamespace.MatchString(text) {
			namespace = ""
			continue
		}
		if m := declarationLine.FindStringSubmatch(text); m != nil {
			decls = append(decls, Declaration{
				Name:   Qualify(namespace, m[2]),
				Kind:   m[1],
				Path:   path,
				Line:   line,
				Source: "scanner",
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return decls, nil
}
