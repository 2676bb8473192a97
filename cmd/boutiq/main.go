// Command boutiq is the storefront client: it keeps a durable session and
// cart on disk between invocations and talks to the backend configured by
// BOUTIQ_API_BASE_URL.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/avelinelabs/boutiq/internal/app"
	"github.com/avelinelabs/boutiq/pkg/config"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "boutiq", Output: os.Stderr})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "boutiq",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logg.Error(ctx, "error during teardown", err)
		}
	}()

	application.Start(ctx)

	if err := runCommand(ctx, application, os.Args[1:]); err != nil {
		logg.Debug(logg.WithField(ctx, "error", err.Error()), "command failed")
		fmt.Fprintln(os.Stderr, "error:", pkgerrors.UserMessage(err))
		os.Exit(1)
	}
}
