package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"firestore-explorer/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be configured.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCommand(cli.Options{}))
	stop()
	os.Exit(code)
}
