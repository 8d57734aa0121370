// Package classmap holds the exact symbol -> source location map consulted
// before alias-based resolution, and reads it from static manifests.
package classmap

import (
	"sort"
	"sync"

	"symres/internal/symbols"
)

// Map is the class/symbol map. Keys are qualified names without a leading
// separator and are matched exactly. The last registration of a key wins.
type Map struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New creates an empty map.
func New() *Map {
	return &Map{entries: make(map[string]string)}
}

// Register maps symbol to path, replacing any earlier mapping.
func (m *Map) Register(symbol, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[symbols.Normalize(symbol)] = path
}

// RegisterManifest adds every entry of man and returns how many were added.
func (m *Map) RegisterManifest(man *Manifest) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for symbol, path := range man.Symbols {
		m.entries[symbols.Normalize(symbol)] = path
	}
	return len(man.Symbols)
}

// Lookup returns the registered path for symbol.
func (m *Map) Lookup(symbol string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.entries[symbols.Normalize(symbol)]
	return path, ok
}

// Len returns the number of mapped symbols.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Symbols returns the mapped symbol names in sorted order.
func (m *Map) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.entries))
	for s := range m.entries {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the map contents.
func (m *Map) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
