// Package syncindex removes index documents whose photo has been deleted
// from the bucket.
package syncindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/photo-search/internal/photo"
	"github.com/photo-search/internal/searchindex"
)

// DefaultPageSize is the number of documents read per index page.
const DefaultPageSize = 100

// ObjectChecker reports whether an object is still in the bucket.
type ObjectChecker interface {
	ObjectExists(ctx context.Context, loc photo.Locator) (bool, error)
}

// Result summarizes a sync run.
type Result struct {
	TotalScanned   int      `json:"totalScanned"`
	OrphansRemoved int      `json:"orphansRemoved"`
	OrphanIDs      []string `json:"orphanIds,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Duration       string   `json:"duration"`
}

// Syncer scans the index for orphaned documents.
type Syncer struct {
	Index   searchindex.Index
	Objects ObjectChecker
	// DefaultBucket is used for documents that do not record a bucket.
	DefaultBucket string
	PageSize      int
	// DryRun reports orphans without deleting them.
	DryRun bool
	Logger *slog.Logger
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Run walks the index with the List cursor, then deletes documents whose
// object is gone once the walk is complete. Problems with single documents
// are collected in Result.Errors.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	log := s.logger()
	result := Result{
		OrphanIDs: []string{},
		Errors:    []string{},
	}

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	log.Info("sync_started", slog.Bool("dry_run", s.DryRun))

	var orphans []string
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page, err := s.Index.List(ctx, after, pageSize)
		if err != nil {
			msg := fmt.Sprintf("failed to list index documents: %v", err)
			log.Error("sync_list_failed", slog.String("error", err.Error()))
			result.Errors = append(result.Errors, msg)
			break
		}

		for _, hit := range page.Hits {
			result.TotalScanned++
			if s.isOrphan(ctx, hit, &result) {
				orphans = append(orphans, hit.ID)
			}
		}

		if page.Next == "" {
			break
		}
		after = page.Next
		log.Info("sync_progress",
			slog.Int("scanned", result.TotalScanned),
			slog.Int("orphans", len(orphans)))
	}

	for _, id := range orphans {
		if s.DryRun {
			result.OrphanIDs = append(result.OrphanIDs, id)
			continue
		}
		if err := s.Index.Delete(ctx, id); err != nil && !searchindex.IsNotFound(err) {
			msg := fmt.Sprintf("failed to delete orphan %s: %v", id, err)
			log.Error("sync_delete_failed", slog.String("id", id), slog.String("error", err.Error()))
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.OrphansRemoved++
		result.OrphanIDs = append(result.OrphanIDs, id)
		log.Info("orphan_removed", slog.String("id", id))
	}

	result.Duration = time.Since(start).String()
	log.Info("sync_completed",
		slog.Int("scanned", result.TotalScanned),
		slog.Int("orphans_removed", result.OrphansRemoved),
		slog.Int("errors", len(result.Errors)),
		slog.String("duration", result.Duration))

	return result, nil
}

func (s *Syncer) isOrphan(ctx context.Context, hit searchindex.Hit, result *Result) bool {
	loc := hit.Document.Locator()
	if loc.Bucket == "" {
		loc.Bucket = s.DefaultBucket
	}
	if loc.Key == "" {
		return true
	}

	exists, err := s.Objects.ObjectExists(ctx, loc)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to check %s: %v", loc, err))
		return false
	}
	if !exists {
		s.logger().Info("orphan_found", slog.String("id", hit.ID), slog.String("key", loc.Key))
	}
	return !exists
}
