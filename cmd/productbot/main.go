// cmd/productbot/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cargoplus/productbot/internal/cli"
)

func main() {
	// Cancel in-flight searches on interrupt so their browsers are closed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
