package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"symres/internal/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err and, for coded errors, the suggested next steps.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("Error:"), err)

	var coded *errors.Error
	if !stderrors.As(err, &coded) {
		return
	}
	for _, fix := range coded.SuggestedFixes {
		if fix.Command != "" {
			fmt.Fprintf(w, "  Try: %s  # %s\n", fix.Command, fix.Description)
		} else {
			fmt.Fprintf(w, "  Hint: %s\n", fix.Description)
		}
	}
}
