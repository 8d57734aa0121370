package bootstrap

import (
	"symres/internal/alias"
	"symres/internal/classmap"
)

// ManifestInfo describes a loaded manifest.
type ManifestInfo struct {
	Path    string          `json:"path"`
	Format  classmap.Format `json:"format"`
	Symbols int             `json:"symbols"`
	Digest  string          `json:"digest"`
}

// Summary is a snapshot of a bootstrapped App.
type Summary struct {
	Environment  Environment    `json:"environment"`
	Aliases      []alias.Entry  `json:"aliases"`
	Manifests    []ManifestInfo `json:"manifests"`
	ClassMapSize int            `json:"classMapSize"`
	Hooks        int            `json:"hooks"`
}

// Summary describes the current state of the app.
func (a *App) Summary() Summary {
	s := Summary{
		Environment:  a.Env,
		Aliases:      a.Aliases.Entries(),
		Manifests:    make([]ManifestInfo, 0, len(a.Manifests)),
		ClassMapSize: a.Classes.Len(),
		Hooks:        a.Runtime.Hooks(),
	}
	for _, m := range a.Manifests {
		s.Manifests = append(s.Manifests, ManifestInfo{
			Path:    m.Path,
			Format:  m.Format,
			Symbols: len(m.Symbols),
			Digest:  m.Digest,
		})
	}
	return s
}
