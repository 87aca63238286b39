package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/config"
	"github.com/photo-search/internal/logging"
	"github.com/photo-search/internal/searchphotos"
)

var searchHandler *searchphotos.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Setup("search-photos", cfg.LogLevel)

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
	searchHandler = app.NewSearchHandler(cfg, sess, idx, logger)
}

// handler serves GET /search?q= through API Gateway and Lex V2
// fulfillment calls.
func handler(ctx context.Context, event json.RawMessage) (interface{}, error) {
	return searchHandler.Handle(ctx, event)
}

func main() {
	lambda.Start(handler)
}
