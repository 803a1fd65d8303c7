// Command plugin-lint reports processor plugin code that hardcodes database
// identifiers or taxa, builds items outside the pass graph, or writes to the
// store directly.
//
//	plugin-lint plugins/qtlfile plugins/chado
package main

import (
	"fmt"
	"io"
	"os"

	"legfed/internal/validation"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args, os.Stderr, validation.ValidatePluginDirectory))
}

func run(args []string, stderr io.Writer, validate func(string) []validation.Error) int {
	if len(args) < 2 {
		prog := "plugin-lint"
		if len(args) > 0 {
			prog = args[0]
		}
		fmt.Fprintf(stderr, "Usage: %s <plugin-directory>...\n", prog)
		return 2
	}
	total := 0
	for _, dir := range args[1:] {
		if _, err := os.Stat(dir); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", dir, err)
			return 2
		}
		for _, e := range validate(dir) {
			total++
			fmt.Fprintf(stderr, "%s:%d: %s\n", e.File, e.Line, e.Message)
			if e.Code != "" {
				fmt.Fprintf(stderr, "\t%s\n", e.Code)
			}
		}
	}
	if total > 0 {
		fmt.Fprintf(stderr, "%d plugin pattern violation(s)\n", total)
		return 1
	}
	return 0
}
