package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nstehr/pitch/pitch-core/cli"
	"github.com/nstehr/pitch/pitch-core/config"
)

func main() {
	rt, err := config.LoadRuntime()
	if err != nil {
		slog.Error("failed to read environment", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: rt.Level()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if rt.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	if err := cli.New().Execute(context.Background()); err != nil {
		slog.Error("pitch failed", "error", err)
		os.Exit(1)
	}
}
