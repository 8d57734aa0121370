package main

import (
	"context"

	"github.com/spf13/cobra"

	"symres/internal/alias"
)

// AliasGetResponse is the response for alias get
type AliasGetResponse struct {
	Alias string `json:"alias"`
	Path  string `json:"path"`
}

// AliasListResponse is the response for alias list
type AliasListResponse struct {
	Aliases []alias.Entry `json:"aliases"`
}

func newAliasCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Inspect path aliases",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <alias>",
		Short: "Translate an alias into a path",
		Long: `Translate an alias into a path using the longest registered prefix.

Examples:
  symres alias get @app/models/User.php
  symres alias get @runtime`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			app, err := s.bootstrap(ctx)
			if err != nil {
				return err
			}
			path, err := app.Aliases.Get(args[0])
			if err != nil {
				return err
			}
			return s.print(&AliasGetResponse{Alias: args[0], Path: path})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered aliases",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			app, err := s.bootstrap(ctx)
			if err != nil {
				return err
			}
			return s.print(&AliasListResponse{Aliases: app.Aliases.Entries()})
		}),
	})

	return cmd
}
