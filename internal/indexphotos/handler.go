// Package indexphotos is the upload-indexing Lambda: it labels every photo
// written to the bucket and records it in the search index.
package indexphotos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/photo-search/internal/indexer"
	"github.com/photo-search/internal/photo"
	"github.com/photo-search/internal/searchindex"
)

// LabelCollector gathers the labels for an object.
type LabelCollector interface {
	Collect(ctx context.Context, loc photo.Locator) []string
}

// HeaderReader fetches an inclusive byte range of an object.
type HeaderReader interface {
	GetObjectByteRange(ctx context.Context, loc photo.Locator, start, end int64) ([]byte, error)
}

// Identifier fingerprints an object from its header. readErr is the error
// from fetching the header, if any.
type Identifier interface {
	Identify(loc photo.Locator, header []byte, readErr error) indexer.Identity
}

// DocumentIndexer writes a document unless it is already indexed.
type DocumentIndexer interface {
	IndexIfNew(ctx context.Context, doc photo.Document, id indexer.Identity) indexer.Result
}

// CaptureReader decodes camera details from an object's header.
type CaptureReader interface {
	Read(loc photo.Locator, header []byte) *photo.Capture
}

// Response is the Lambda's return value.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Handler processes S3 upload notifications and admin queries.
type Handler struct {
	Labels LabelCollector
	// Headers serves the leading bytes of each photo. HeaderSize bytes are
	// fetched once and shared by Identify and Capture; it is raised to
	// indexer.SampleSize when smaller.
	Headers    HeaderReader
	HeaderSize int64
	Identify   Identifier
	Indexer  DocumentIndexer
	// Capture is optional.
	Capture CaptureReader
	// Index answers admin queries.
	Index  searchindex.Index
	Logger *slog.Logger
	Now    func() time.Time
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) headerSize() int64 {
	if h.HeaderSize < indexer.SampleSize {
		return indexer.SampleSize
	}
	return h.HeaderSize
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// envelope is enough of any invocation payload to route it.
type envelope struct {
	Action    string `json:"action"`
	QueryType string `json:"queryType"`
}

// Handle routes a raw invocation: {"action": "query"} payloads go to
// HandleQuery, everything else is treated as an S3 event.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Response{}, fmt.Errorf("failed to parse event: %w", err)
	}
	if env.Action == "query" {
		return h.HandleQuery(ctx, QueryRequest{QueryType: env.QueryType}), nil
	}

	var event events.S3Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Response{}, fmt.Errorf("failed to parse S3 event: %w", err)
	}
	return h.HandleS3Event(ctx, event)
}

// HandleS3Event indexes every uploaded object in the batch. Failures of a
// single photo are logged and counted; only a malformed record fails the
// whole invocation.
func (h *Handler) HandleS3Event(ctx context.Context, event events.S3Event) (Response, error) {
	log := h.logger()
	var summary indexer.Summary

	for _, record := range event.Records {
		loc, err := locatorFor(record)
		if err != nil {
			log.Error("s3_record_invalid", slog.String("error", err.Error()))
			return Response{}, err
		}
		if strings.HasSuffix(loc.Key, "/") {
			log.Info("skipping_folder_marker", slog.String("key", loc.Key))
			continue
		}

		res := h.indexPhoto(ctx, loc)
		summary.Add(res)
	}

	log.Info("batch_processed",
		slog.Int("records", len(event.Records)),
		slog.Any("summary", summary))

	return Response{
		StatusCode: 200,
		Body:       jsonString("Photo(s) processed successfully"),
	}, nil
}

func (h *Handler) indexPhoto(ctx context.Context, loc photo.Locator) indexer.Result {
	log := h.logger().With(slog.String("bucket", loc.Bucket), slog.String("key", loc.Key))
	log.Info("processing_photo")

	labels := h.Labels.Collect(ctx, loc)
	doc := photo.NewDocument(loc, labels, h.now())

	header, readErr := h.Headers.GetObjectByteRange(ctx, loc, 0, h.headerSize()-1)
	if h.Capture != nil && readErr == nil {
		doc.Capture = h.Capture.Read(loc, header)
	}
	log.Debug("photo_document_prepared", slog.Any("labels", doc.Labels))

	id := h.Identify.Identify(loc, header, readErr)
	return h.Indexer.IndexIfNew(ctx, doc, id)
}

// locatorFor extracts the bucket and decoded key from an S3 record. Keys in
// S3 notifications are URL-encoded with '+' for spaces.
func locatorFor(record events.S3EventRecord) (photo.Locator, error) {
	bucket := record.S3.Bucket.Name
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return photo.Locator{}, fmt.Errorf("failed to decode key %q: %w", record.S3.Object.Key, err)
	}
	if bucket == "" || key == "" {
		return photo.Locator{}, errors.New("S3 record is missing bucket or key")
	}
	return photo.Locator{Bucket: bucket, Key: key}, nil
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
