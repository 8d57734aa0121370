package symbols

import (
	"strings"
)

// Separator splits namespace segments in a qualified symbol name.
const Separator = `\`

// Normalize strips the leading global-namespace separator and surrounding
// whitespace, so `\app\models\User` and `app\models\User` are the same key.
func Normalize(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), Separator)
}

// IsQualified reports whether the name has at least one namespace segment.
func IsQualified(name string) bool {
	return strings.Contains(Normalize(name), Separator)
}

// Segments splits a qualified name into its namespace parts.
func Segments(name string) []string {
	name = Normalize(name)
	if name == "" {
		return nil
	}
	return strings.Split(name, Separator)
}

// Namespace returns everything before the last separator.
func Namespace(name string) string {
	name = Normalize(name)
	if i := strings.LastIndex(name, Separator); i >= 0 {
		return name[:i]
	}
	return ""
}

// ShortName returns the last segment.
func ShortName(name string) string {
	name = Normalize(name)
	if i := strings.LastIndex(name, Separator); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Qualify joins a namespace and a short name.
func Qualify(namespace, short string) string {
	namespace = Normalize(namespace)
	if namespace == "" {
		return short
	}
	return namespace + Separator + short
}

// AliasPath converts a qualified symbol into the alias path that locates
// its source unit: app\models\User + ".php" -> @app/models/User.php.
// The first segment becomes the alias root; the rest is a relative path.
func AliasPath(name, ext string) string {
	return "@" + strings.Join(Segments(name), "/") + ext
}

// Key returns the case-folded lookup key for a symbol. Class-like symbols
// are case-insensitive once defined.
func Key(name string) string {
	return strings.ToLower(Normalize(name))
}
