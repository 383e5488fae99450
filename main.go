// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/privsuite/verify-cli/cmd"
	"github.com/privsuite/verify-cli/internal/observability"
)

// main is the entry point for the verify-cli application.
func main() {
	// Ctrl-C aborts the crawl but still lets deferred cleanup run.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	stop()
	if err != nil {
		os.Exit(1)
	}
}
