package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/config"
	"github.com/photo-search/internal/logging"
	"github.com/photo-search/internal/syncindex"
)

var syncer *syncindex.Syncer

func init() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Setup("sync-index", cfg.LogLevel)

	sess, err := app.NewSession(cfg)
	if err != nil {
		logger.Error("session_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	idx, _, err := app.NewIndex(cfg, sess, logger)
	if err != nil {
		logger.Error("index_open_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	syncer = app.NewSyncer(cfg, sess, idx, logger)
}

// handler runs on a schedule and drops index documents whose photo is gone.
func handler(ctx context.Context) (syncindex.Result, error) {
	return syncer.Run(ctx)
}

func main() {
	lambda.Start(handler)
}
