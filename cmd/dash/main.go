package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vinceanalytics/dash/internal/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := cmd.Cli().Run(ctx, os.Args)
	if err != nil {
		slog.Error("exited with error", "err", err)
		cancel()
		os.Exit(1)
	}
}
