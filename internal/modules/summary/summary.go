// Package summary prints the end-of-batch report shown to the user.
package summary

import (
	"fmt"
	"io"
	"songfetch/internal/models"
	"strings"

	"github.com/fatih/color"
)

const ruleWidth = 50

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	headColor = color.New(color.Bold)
)

// Print writes the counts, the successful and failed songs and the output
// directory of result to w.
func Print(w io.Writer, result models.BatchResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	if result.Interrupted {
		headColor.Fprintln(w, "Download interrupted, partial results:")
	} else {
		headColor.Fprintln(w, "Download finished!")
	}
	fmt.Fprintf(w, "Successful: %d\n", len(result.Successful))
	fmt.Fprintf(w, "Failed: %d\n", len(result.Failed))

	if len(result.Successful) > 0 {
		fmt.Fprintln(w)
		okColor.Fprintln(w, "✓ Downloaded songs:")
		for _, song := range result.Successful {
			fmt.Fprintf(w, "  - %s\n", song)
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintln(w)
		failColor.Fprintln(w, "✗ Failed songs:")
		for _, song := range result.Failed {
			fmt.Fprintf(w, "  - %s\n", song)
		}
	}

	fmt.Fprintf(w, "\nFiles saved in: %s\n", result.OutputDir)
}
