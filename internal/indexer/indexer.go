// Package indexer writes photo documents to the search index at most once per
// content fingerprint.
//
// IndexIfNew checks for the document and then writes it in two separate
// calls. Two uploads of the same photo processed concurrently can both see
// it missing and both write; the later write wins. A conditional create on
// the index would close the gap.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/photo-search/internal/photo"
	"github.com/photo-search/internal/searchindex"
)

// Outcome is the result of one IndexIfNew call.
type Outcome int

const (
	Inserted Outcome = iota + 1
	Duplicate
	Updated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports what IndexIfNew did for a document.
type Result struct {
	Outcome    Outcome
	DocumentID string
	Fallback   bool
	// Err is the reason for a Failed outcome.
	Err error
}

// Index is the part of the search index the indexer needs.
type Index interface {
	Exists(ctx context.Context, id string) (bool, error)
	Put(ctx context.Context, id string, doc photo.Document) (searchindex.PutResult, error)
}

// Indexer writes documents that are not already indexed.
type Indexer struct {
	index  Index
	logger *slog.Logger
}

// New creates an Indexer over index.
func New(index Index, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{index: index, logger: logger}
}

// IndexIfNew stores doc under the identity's document id unless a document
// with that id exists. It performs one existence check and at most one write
// and never retries.
func (ix *Indexer) IndexIfNew(ctx context.Context, doc photo.Document, id Identity) Result {
	res := Result{DocumentID: id.DocumentID(), Fallback: id.Fallback}
	log := ix.logger.With(
		slog.String("document_id", res.DocumentID),
		slog.String("key", doc.ObjectKey))

	exists, err := ix.index.Exists(ctx, res.DocumentID)
	if err != nil {
		return ix.fail(ctx, log, res, fmt.Errorf("existence check: %w", err))
	}
	if exists {
		res.Outcome = Duplicate
		log.Info("photo_duplicate", slog.String("fingerprint", id.Fingerprint))
		return res
	}

	put, err := ix.index.Put(ctx, res.DocumentID, doc)
	if err != nil {
		return ix.fail(ctx, log, res, fmt.Errorf("write: %w", err))
	}
	res.Outcome = Inserted
	if put == searchindex.Updated {
		// another invocation wrote the same id after our check
		res.Outcome = Updated
	}
	log.Info("photo_indexed",
		slog.String("outcome", res.Outcome.String()),
		slog.Bool("fallback_identity", id.Fallback),
		slog.Int("labels", len(doc.Labels)))
	return res
}

func (ix *Indexer) fail(ctx context.Context, log *slog.Logger, res Result, err error) Result {
	res.Outcome = Failed
	res.Err = err
	level := slog.LevelError
	if errors.Is(err, searchindex.ErrNotConfigured) {
		level = slog.LevelWarn
	}
	log.Log(ctx, level, "photo_index_failed", slog.String("error", err.Error()))
	return res
}

// Summary counts outcomes across a batch.
type Summary struct {
	Inserted  int `json:"inserted"`
	Duplicate int `json:"duplicate"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
	Fallback  int `json:"fallback"`
}

// Add records r in the summary.
func (s *Summary) Add(r Result) {
	switch r.Outcome {
	case Inserted:
		s.Inserted++
	case Duplicate:
		s.Duplicate++
	case Updated:
		s.Updated++
	case Failed:
		s.Failed++
	}
	if r.Fallback {
		s.Fallback++
	}
}

// LogValue lets a Summary be logged as a group.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("inserted", s.Inserted),
		slog.Int("duplicate", s.Duplicate),
		slog.Int("updated", s.Updated),
		slog.Int("failed", s.Failed),
		slog.Int("fallback", s.Fallback))
}
