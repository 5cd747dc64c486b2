package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"icsfix/internal/cli"
	appLog "icsfix/internal/log"
)

var version = "0.1.0-dev"

func main() {
	cli.SetVersion(version)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		appLog.Error("icsfix failed", err)
		stop()
		os.Exit(1)
	}
}
