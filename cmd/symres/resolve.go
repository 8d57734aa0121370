package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"symres/internal/autoload"
	"symres/internal/errors"
)

// ResolveResult is the outcome for one symbol
type ResolveResult struct {
	Symbol     string               `json:"symbol"`
	Resolution *autoload.Resolution `json:"resolution,omitempty"`
	Code       errors.ErrorCode     `json:"code,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// ResolveResponse is the response for resolve
type ResolveResponse struct {
	Results []ResolveResult `json:"results"`
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <symbol>...",
		Short: "Show which file would define each symbol",
		Long: `Resolve symbols to source files without loading them. The class map is
consulted first, then the namespace is turned into an alias path.

Examples:
  symres resolve 'app\models\User'
  symres resolve 'app\models\User' 'acme\log\Logger' --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			app, err := s.bootstrap(ctx)
			if err != nil {
				return err
			}

			resp := &ResolveResponse{Results: make([]ResolveResult, 0, len(args))}
			failed := 0
			for _, symbol := range args {
				res, err := app.Autoloader.Resolve(symbol)
				if err != nil {
					failed++
					resp.Results = append(resp.Results, ResolveResult{
						Symbol: symbol,
						Code:   errors.CodeOf(err),
						Error:  err.Error(),
					})
					continue
				}
				resp.Results = append(resp.Results, ResolveResult{Symbol: symbol, Resolution: &res})
			}

			if err := s.print(resp); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d symbols could not be resolved", failed, len(args))
			}
			return nil
		}),
	}
}
