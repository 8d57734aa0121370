package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"symres/internal/version"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			text, err := FormatResponse(version.Get(), format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}
