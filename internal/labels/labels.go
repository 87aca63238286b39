// Package labels merges detected image labels with labels supplied by the
// uploader in object metadata.
package labels

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/photo-search/internal/photo"
)

const (
	// DefaultMaxLabels caps how many detected labels are kept.
	DefaultMaxLabels = 10
	// DefaultMinConfidence is the lowest detection confidence, in percent, kept.
	DefaultMinConfidence = 70.0
	// DefaultMetadataKey is the user metadata key (x-amz-meta-customlabels)
	// holding comma-separated labels.
	DefaultMetadataKey = "customlabels"
)

// Detected is one label from the vision service.
type Detected struct {
	Name       string
	Confidence float64
}

// Detector finds labels in an image.
type Detector interface {
	DetectLabels(ctx context.Context, loc photo.Locator, maxLabels int, minConfidence float64) ([]Detected, error)
}

// MetadataReader returns an object's user metadata.
type MetadataReader interface {
	GetObjectMetadata(ctx context.Context, loc photo.Locator) (map[string]string, error)
}

// ParseCustomLabels splits a comma-separated label list and trims each piece.
// Only an empty string yields no labels. Blank pieces such as the middle of
// "a,,b" are kept as empty labels, one per comma-separated position.
func ParseCustomLabels(csv string) []string {
	if csv == "" {
		return []string{}
	}
	pieces := strings.Split(csv, ",")
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		out = append(out, strings.TrimSpace(piece))
	}
	return out
}

// Aggregate appends the metadata labels to the detected ones. A label found
// by both sources appears twice.
func Aggregate(detected []string, metadataCSV string) []string {
	custom := ParseCustomLabels(metadataCSV)
	out := make([]string, 0, len(detected)+len(custom))
	out = append(out, detected...)
	return append(out, custom...)
}

// FilterDetected keeps the names of labels at or above minConfidence, at most
// maxLabels of them.
func FilterDetected(detected []Detected, maxLabels int, minConfidence float64) []string {
	names := make([]string, 0, len(detected))
	for _, d := range detected {
		if len(names) == maxLabels {
			break
		}
		if d.Confidence < minConfidence {
			continue
		}
		names = append(names, d.Name)
	}
	return names
}

// Aggregator gathers the labels for an uploaded object.
type Aggregator struct {
	Detector      Detector
	Metadata      MetadataReader
	MaxLabels     int
	MinConfidence float64
	MetadataKey   string
	Logger        *slog.Logger
}

// NewAggregator creates an Aggregator with the default limits.
func NewAggregator(detector Detector, metadata MetadataReader, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		Detector:      detector,
		Metadata:      metadata,
		MaxLabels:     DefaultMaxLabels,
		MinConfidence: DefaultMinConfidence,
		MetadataKey:   DefaultMetadataKey,
		Logger:        logger,
	}
}

// Collect asks the detector and the object metadata for labels concurrently.
// A source that fails contributes no labels; Collect itself does not fail.
func (a *Aggregator) Collect(ctx context.Context, loc photo.Locator) []string {
	var detected []string
	var csv string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detected = a.detect(gctx, loc)
		return nil
	})
	g.Go(func() error {
		csv = a.customLabels(gctx, loc)
		return nil
	})
	_ = g.Wait()

	return Aggregate(detected, csv)
}

func (a *Aggregator) detect(ctx context.Context, loc photo.Locator) []string {
	if a.Detector == nil {
		return nil
	}
	found, err := a.Detector.DetectLabels(ctx, loc, a.MaxLabels, a.MinConfidence)
	if err != nil {
		a.Logger.Warn("detect_labels_failed",
			slog.String("key", loc.Key),
			slog.String("error", err.Error()))
		return nil
	}
	return FilterDetected(found, a.MaxLabels, a.MinConfidence)
}

func (a *Aggregator) customLabels(ctx context.Context, loc photo.Locator) string {
	if a.Metadata == nil {
		return ""
	}
	meta, err := a.Metadata.GetObjectMetadata(ctx, loc)
	if err != nil {
		a.Logger.Warn("custom_labels_failed",
			slog.String("key", loc.Key),
			slog.String("error", err.Error()))
		return ""
	}
	return lookup(meta, a.MetadataKey)
}

// lookup finds key ignoring case; S3 returns metadata keys in header case.
func lookup(meta map[string]string, key string) string {
	if v, ok := meta[key]; ok {
		return v
	}
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
