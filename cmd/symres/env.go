package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newEnvCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Bootstrap the application and show its state",
		Long: `Bootstrap the application the way a request would and print the
environment flags, registered aliases, loaded manifests and autoload hooks.
A manifest that fails to load makes this command fail.`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			app, err := s.bootstrap(ctx)
			if err != nil {
				return err
			}
			summary := app.Summary()
			return s.print(&summary)
		}),
	}
}
