package searchindex

import (
	"context"
	"log/slog"

	"github.com/photo-search/internal/photo"
)

// Disabled is used when no index endpoint is configured. Writes and admin
// calls fail with ErrNotConfigured; searches return nothing.
type Disabled struct {
	Logger *slog.Logger
}

func (d Disabled) warn(op string) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("search_index_not_configured", slog.String("op", op))
}

func (d Disabled) Exists(ctx context.Context, id string) (bool, error) {
	d.warn("Exists")
	return false, ErrNotConfigured
}

func (d Disabled) Put(ctx context.Context, id string, doc photo.Document) (PutResult, error) {
	d.warn("Put")
	return 0, ErrNotConfigured
}

func (d Disabled) Search(ctx context.Context, keywords []string, limit int) ([]Hit, error) {
	d.warn("Search")
	return []Hit{}, nil
}

func (d Disabled) Count(ctx context.Context) (int, error) {
	d.warn("Count")
	return 0, ErrNotConfigured
}

func (d Disabled) List(ctx context.Context, after string, size int) (Page, error) {
	d.warn("List")
	return Page{}, ErrNotConfigured
}

func (d Disabled) Delete(ctx context.Context, id string) error {
	d.warn("Delete")
	return ErrNotConfigured
}
