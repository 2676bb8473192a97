package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/avelinelabs/boutiq/internal/mockapi"
	"github.com/avelinelabs/boutiq/pkg/config"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

type mockEnv struct {
	App  config.AppConfig
	Mock config.MockConfig
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "mockapi"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	var cfg mockEnv
	if err := envconfig.Process(config.EnvPrefix, &cfg); err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mockapi",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server, err := mockapi.NewServer(logg, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to build mock backend", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Mock.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting mock storefront backend")

	httpServer := &http.Server{Addr: addr, Handler: server}
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "mock backend stopped unexpectedly", err)
		os.Exit(1)
	}
}
