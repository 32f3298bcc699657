package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/soreli/soreli-cli/internal/cmd"
)

// BuildVersion is set at link time via -ldflags
var BuildVersion = "dev"

func main() {
	cmd.SetVersion(BuildVersion)

	// Missing .env is fine; secrets can come from the real environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nCancelled")
			os.Exit(130)
		}
		if !errors.Is(err, cmd.ErrAccessDenied) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
