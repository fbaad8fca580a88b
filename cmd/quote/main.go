// Package main is a command line client for the quote pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Version is injected via ldflags.
var Version = "dev"

func main() {
	cmd := newRootCmd(cliOptions{Version: Version})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var kerr *kindError
		if errors.As(err, &kerr) {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", kerr.kind, kerr.err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		os.Exit(exitCode(err))
	}
}
