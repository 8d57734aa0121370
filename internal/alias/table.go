// Package alias maps @-prefixed path aliases to filesystem locations.
//
// Aliases are grouped by their root (the part before the first '/'). Within
// a root, entries are kept longest name first so that resolving
// "@app/modules/admin/views" prefers "@app/modules/admin" over "@app".
package alias

import (
	"sort"
	"strings"
	"sync"

	"symres/internal/errors"
)

// Prefix marks a string as an alias rather than a literal path.
const Prefix = "@"

// Entry is a single alias registration.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Table is the alias registry. The zero value is not usable; call NewTable.
type Table struct {
	mu    sync.RWMutex
	roots map[string][]Entry
}

// NewTable creates an empty alias table.
func NewTable() *Table {
	return &Table{roots: make(map[string][]Entry)}
}

// IsAlias reports whether s starts with the alias prefix.
func IsAlias(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

// Normalize adds the alias prefix if missing and strips trailing separators.
func Normalize(name string) string {
	name = strings.TrimRight(name, `/\`)
	if !IsAlias(name) {
		name = Prefix + name
	}
	return name
}

// rootOf returns the part of an alias up to its first '/'.
func rootOf(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}

// Set registers name -> path, overwriting any previous registration of the
// same name. The path is stored as given, minus trailing separators.
func (t *Table) Set(name, path string) {
	name = Normalize(name)
	path = strings.TrimRight(path, `/\`)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(name, path)
}

func (t *Table) setLocked(name, path string) {
	root := rootOf(name)
	bucket := t.roots[root]
	for i := range bucket {
		if bucket[i].Name == name {
			bucket[i].Path = path
			return
		}
	}
	bucket = append(bucket, Entry{Name: name, Path: path})
	sort.SliceStable(bucket, func(i, j int) bool {
		if len(bucket[i].Name) != len(bucket[j].Name) {
			return len(bucket[i].Name) > len(bucket[j].Name)
		}
		return bucket[i].Name > bucket[j].Name
	})
	t.roots[root] = bucket
}

// Link registers name as an alias for target. When target is itself an
// alias it is resolved first, so later changes to target do not propagate.
func (t *Table) Link(name, target string) error {
	if !IsAlias(target) {
		t.Set(name, target)
		return nil
	}
	resolved, err := t.Get(target)
	if err != nil {
		return errors.New(errors.AliasNotFound,
			"cannot link "+Normalize(name)+" to unresolved alias "+target, err)
	}
	t.Set(name, resolved)
	return nil
}

// Remove deletes a registration. Removing an unknown alias is a no-op.
func (t *Table) Remove(name string) {
	name = Normalize(name)
	root := rootOf(name)

	t.mu.Lock()
	defer t.mu.Unlock()
	bucket := t.roots[root]
	for i := range bucket {
		if bucket[i].Name == name {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(t.roots, root)
		return
	}
	t.roots[root] = bucket
}

// Get translates an alias into a path using the longest registered prefix.
// Names that do not start with '@' are returned unchanged. An alias with no
// matching registration fails with ALIAS_NOT_FOUND.
func (t *Table) Get(name string) (string, error) {
	if !IsAlias(name) {
		return name, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.matchLocked(name); ok {
		return e.Path + name[len(e.Name):], nil
	}
	return "", errors.Newf(errors.AliasNotFound, "invalid path alias: %s", name)
}

// Root returns the registered alias Get would use for name.
func (t *Table) Root(name string) (string, bool) {
	if !IsAlias(name) {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.matchLocked(name)
	return e.Name, ok
}

func (t *Table) matchLocked(name string) (Entry, bool) {
	for _, e := range t.roots[rootOf(name)] {
		if name == e.Name || strings.HasPrefix(name, e.Name+"/") {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns all registrations sorted by name.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Entry
	for _, bucket := range t.roots {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registrations.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, bucket := range t.roots {
		n += len(bucket)
	}
	return n
}
