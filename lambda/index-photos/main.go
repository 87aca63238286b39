package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/config"
	"github.com/photo-search/internal/indexphotos"
	"github.com/photo-search/internal/logging"
)

var indexHandler *indexphotos.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Setup("index-photos", cfg.LogLevel)

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
	indexHandler = app.NewIndexHandler(cfg, sess, idx, logger)
}

// handler indexes S3 upload notifications and answers {"action": "query"}
// admin invocations.
func handler(ctx context.Context, event json.RawMessage) (indexphotos.Response, error) {
	return indexHandler.Handle(ctx, event)
}

func main() {
	lambda.Start(handler)
}
