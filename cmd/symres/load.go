package main

import (
	"context"

	"github.com/spf13/cobra"

	"symres/internal/autoload"
	"symres/internal/host"
)

// LoadResponse is the response for load
type LoadResponse struct {
	Definition host.Definition      `json:"definition"`
	Resolution *autoload.Resolution `json:"resolution,omitempty"`
	Stats      autoload.Stats       `json:"stats"`
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <symbol>",
		Short: "Autoload a symbol and show its definition",
		Long: `Require a symbol through the host runtime, which runs the autoloader
hook when the symbol is not defined yet.

Examples:
  symres load 'app\models\User'
  SYMRES_DEBUG=1 symres load 'app\models\User'   # report namespace mismatches`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			app, err := s.bootstrap(ctx)
			if err != nil {
				return err
			}
			symbol := args[0]

			def, err := app.Require(ctx, symbol)
			if err != nil {
				// The hook only logs its failure. Includes are once-only, so
				// loading again is cheap and names the cause.
				if _, lerr := app.Autoloader.Load(ctx, symbol); lerr != nil {
					return lerr
				}
				return err
			}

			resp := &LoadResponse{Definition: def, Stats: app.Autoloader.Stats()}
			if res, err := app.Autoloader.Resolve(symbol); err == nil {
				resp.Resolution = &res
			}
			return s.print(resp)
		}),
	}
}
