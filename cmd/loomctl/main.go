// Command loomctl runs the composition core offline: compose request files,
// resolve response modes, replay recorded chunk streams and manage the node
// table.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
