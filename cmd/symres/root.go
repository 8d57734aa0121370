package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"symres/internal/bootstrap"
	"symres/internal/config"
	"symres/internal/errors"
	"symres/internal/slogutil"
	"symres/internal/version"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	base      string
	format    string
	verbosity int
	quiet     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "symres",
		Short: "symres - alias-based symbol resolver",
		Long: `symres maps path aliases such as @app or @vendor to directories, keeps a
class map loaded from manifests and autoloads symbols by turning their
namespaced names into alias paths.

Configuration is read from .symres/config.json under --base.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("symres version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.base, "base", "", "Project directory holding .symres (default: current directory)")
	flags.StringVar(&opts.format, "format", string(FormatHuman), "Output format (human, json)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all logs")

	cmd.AddCommand(
		newAliasCmd(opts),
		newResolveCmd(opts),
		newLoadCmd(opts),
		newManifestCmd(opts),
		newIndexCmd(opts),
		newEnvCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// session is the per-invocation state shared by subcommands.
type session struct {
	dir    string
	load   *config.LoadResult
	logs   *slogutil.LoggerFactory
	logger *slog.Logger
	format OutputFormat
	out    io.Writer
}

// openSession loads the config under --base and builds the logger.
func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	format, err := parseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	dir := opts.base
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}

	load, err := config.LoadConfigWithDetails(dir)
	if err != nil {
		var cfgErr *config.ConfigError
		if stderrors.As(err, &cfgErr) {
			return nil, errors.New(errors.ConfigInvalid, "invalid configuration", err).
				WithDetails(map[string]string{"field": cfgErr.Field})
		}
		return nil, err
	}

	cliSet := opts.quiet || cmd.Flags().Changed("verbose")
	logs := slogutil.NewLoggerFactory(dir, load.Config, slogutil.LevelFromVerbosity(opts.verbosity, opts.quiet), cliSet).
		WithColor(format == FormatHuman)

	return &session{
		dir:    dir,
		load:   load,
		logs:   logs,
		logger: logs.Logger(cmd.ErrOrStderr()),
		format: format,
		out:    cmd.OutOrStdout(),
	}, nil
}

func (s *session) config() *config.Config {
	return s.load.Config
}

// bootstrap wires the full application, manifests included.
func (s *session) bootstrap(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.New(ctx, s.config(), s.logger)
}

// print writes resp in the session's output format.
func (s *session) print(resp interface{}) error {
	text, err := FormatResponse(resp, s.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, text)
	return err
}

func (s *session) close() {
	if err := s.logs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(opts *rootOptions, fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, opts)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd.Context(), s, args)
	}
}
