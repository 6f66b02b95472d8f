package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mark3labs/discovery2go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		// Cobra is configured to not print errors. Ensure users still get a message.
		if msg := err.Error(); msg != "" {
			_, _ = fmt.Fprintln(os.Stderr, "discovery2go: "+msg)
		}
		os.Exit(cli.ExitCode(err))
	}
}
