package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pianosheets/cmd/collector/commands"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(commands.ExecuteContext(ctx))
}
