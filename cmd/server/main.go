package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Signal-aware context is the root of ownership for the server and the expire task.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
