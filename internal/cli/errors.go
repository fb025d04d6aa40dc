package cli

import (
	"fmt"
	"io"
	"os"

	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
)

// PrintError prints an error to stderr with appropriate formatting.
// If the error is a DashError, it uses the user-friendly format.
// Otherwise, it prints a simple error message.
func PrintError(err error) {
	printError(os.Stderr, err)
}

func printError(w io.Writer, err error) {
	if dashErr := dasherrors.AsDashError(err); dashErr != nil {
		fmt.Fprintln(w, dashErr.UserMessage())
		if verbose {
			// In verbose mode, also print the error code and cause
			fmt.Fprintf(w, "\nCode: %s\n", dashErr.Code)
			if dashErr.Cause != nil {
				fmt.Fprintf(w, "Cause: %v\n", dashErr.Cause)
			}
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
