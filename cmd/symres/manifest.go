package main

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"symres/internal/alias"
	"symres/internal/bootstrap"
	"symres/internal/classmap"
)

// ManifestSymbol is one class-map entry
type ManifestSymbol struct {
	Symbol string `json:"symbol"`
	Path   string `json:"path"`
}

// ManifestResponse is the response for manifest show and convert
type ManifestResponse struct {
	Path      string           `json:"path"`
	Format    classmap.Format  `json:"format"`
	Digest    string           `json:"digest,omitempty"`
	Symbols   []ManifestSymbol `json:"symbols"`
	Converted string           `json:"converted,omitempty"`
}

func newManifestCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect and convert class-map manifests",
		Long: `Manifests map symbols to files. Supported formats are chosen by extension:
.json, .yaml/.yml, .toml, .msgpack, each optionally compressed with .zst,
and .db for a sqlite symbol index written by 'symres index'.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <path>",
		Short: "Print the symbols of a manifest",
		Long: `Print the symbols of a manifest. The path may be an alias.

Examples:
  symres manifest show @runtime/classes.json
  symres manifest show .symres/index.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			man, err := loadManifest(ctx, s, args[0])
			if err != nil {
				return err
			}
			return s.print(manifestResponse(man))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "convert <from> <to>",
		Short: "Rewrite a manifest in another format",
		Long: `Rewrite a manifest in the format implied by the target extension.

Examples:
  symres manifest convert classes.json classes.msgpack.zst
  symres manifest convert .symres/index.db @runtime/classes.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			man, err := loadManifest(ctx, s, args[0])
			if err != nil {
				return err
			}
			target, err := locate(s, args[1])
			if err != nil {
				return err
			}
			if err := classmap.Write(target, man); err != nil {
				return err
			}
			s.logger.Info("Converted manifest", "from", man.Path, "to", target, "symbols", len(man.Symbols))

			resp := manifestResponse(man)
			resp.Converted = target
			return s.print(resp)
		}),
	})

	return cmd
}

// locate expands an alias argument, or makes a plain path absolute.
// Aliases are expanded without loading manifests, so a manifest can be
// inspected even when it is the one failing to load at bootstrap.
func locate(s *session, arg string) (string, error) {
	if !alias.IsAlias(arg) {
		return filepath.Abs(arg)
	}
	aliases, err := bootstrap.Aliases(s.config(), s.logger)
	if err != nil {
		return "", err
	}
	return aliases.Get(arg)
}

func loadManifest(ctx context.Context, s *session, arg string) (*classmap.Manifest, error) {
	path, err := locate(s, arg)
	if err != nil {
		return nil, err
	}
	return classmap.NewLoader(s.logger).Load(ctx, path)
}

func manifestResponse(man *classmap.Manifest) *ManifestResponse {
	resp := &ManifestResponse{
		Path:    man.Path,
		Format:  man.Format,
		Digest:  man.Digest,
		Symbols: make([]ManifestSymbol, 0, len(man.Symbols)),
	}
	for symbol, path := range man.Symbols {
		resp.Symbols = append(resp.Symbols, ManifestSymbol{Symbol: symbol, Path: path})
	}
	sort.Slice(resp.Symbols, func(i, j int) bool { return resp.Symbols[i].Symbol < resp.Symbols[j].Symbol })
	return resp
}
