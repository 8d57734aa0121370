package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ProjectDirName is the per-project state directory under the base path
	ProjectDirName = ".symres"
	// ConfigFileName is the config file inside the project directory
	ConfigFileName = "config.json"
	// IndexDBName is the sqlite symbol index inside the project directory
	IndexDBName = "index.db"
	// LogsDirName holds log files inside the project directory
	LogsDirName = "logs"
)

// GetProjectDir returns <basePath>/.symres
func GetProjectDir(basePath string) string {
	return filepath.Join(basePath, ProjectDirName)
}

// GetConfigPath returns <basePath>/.symres/config.json
func GetConfigPath(basePath string) string {
	return filepath.Join(GetProjectDir(basePath), ConfigFileName)
}

// GetIndexDBPath returns <basePath>/.symres/index.db
func GetIndexDBPath(basePath string) string {
	return filepath.Join(GetProjectDir(basePath), IndexDBName)
}

// GetLogsDir returns <basePath>/.symres/logs
func GetLogsDir(basePath string) string {
	return filepath.Join(GetProjectDir(basePath), LogsDirName)
}

// EnsureLogsDir creates the logs directory if needed and returns it
func EnsureLogsDir(basePath string) (string, error) {
	dir := GetLogsDir(basePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureProjectDir creates the project directory if needed and returns it
func EnsureProjectDir(basePath string) (string, error) {
	dir := GetProjectDir(basePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to root
// - Converts backslashes to forward slashes
func CanonicalizePath(absolutePath string, root string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = root
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	// Convert to forward slashes (platform independent)
	return filepath.ToSlash(relativePath), nil
}

// IsWithin checks if a path is within root
func IsWithin(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}

	// Path is outside root if it starts with ..
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinPath joins a root with a canonical forward-slash path
func JoinPath(root string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// IsRegularFile reports whether path exists and is a regular file
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Abs returns an absolute, cleaned version of path, falling back to the
// cleaned input when the working directory is unavailable
func Abs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
