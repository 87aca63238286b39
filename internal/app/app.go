// Package app builds the Lambda handlers from configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lexruntimev2"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/photo-search/internal/capture"
	"github.com/photo-search/internal/config"
	"github.com/photo-search/internal/indexer"
	"github.com/photo-search/internal/indexphotos"
	"github.com/photo-search/internal/intent"
	"github.com/photo-search/internal/labels"
	"github.com/photo-search/internal/objectstore"
	"github.com/photo-search/internal/query"
	"github.com/photo-search/internal/searchindex"
	"github.com/photo-search/internal/searchphotos"
	"github.com/photo-search/internal/syncindex"
	"github.com/photo-search/internal/vision"
)

// NewSession creates the AWS session shared by a Lambda's clients.
func NewSession(cfg config.Config) (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewIndex selects the search index backend. The returned Closer releases
// a Bleve index; it is a no-op for the others.
func NewIndex(cfg config.Config, sess *session.Session, logger *slog.Logger) (searchindex.Index, io.Closer, error) {
	switch {
	case !cfg.IndexConfigured():
		logger.Warn("search_index_not_configured", slog.String("backend", cfg.Index.Backend))
		return searchindex.Disabled{Logger: logger}, nopCloser{}, nil
	case cfg.Index.Backend == config.BackendBleve:
		idx, err := searchindex.NewBleve(cfg.Index.BlevePath)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx, nil
	default:
		var opts []searchindex.OpenSearchOption
		if sess != nil {
			signer, err := searchindex.NewAWSSigner(cfg.Region, sess.Config.Credentials)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, searchindex.WithSigner(signer))
		}
		idx, err := searchindex.NewOpenSearch(cfg.Index.Endpoint, cfg.Index.Name, opts...)
		if err != nil {
			return nil, nil, err
		}
		return idx, nopCloser{}, nil
	}
}

// NewIndexHandler wires the upload-indexing pipeline.
func NewIndexHandler(cfg config.Config, sess *session.Session, idx searchindex.Index, logger *slog.Logger) *indexphotos.Handler {
	store := objectstore.NewS3(s3.New(sess))
	return newIndexHandler(cfg, store, vision.NewRekognition(rekognition.New(sess)), idx, logger)
}

func newIndexHandler(cfg config.Config, store *objectstore.S3, detector labels.Detector, idx searchindex.Index, logger *slog.Logger) *indexphotos.Handler {
	agg := labels.NewAggregator(detector, store, logger)
	agg.MaxLabels = cfg.Labels.MaxLabels
	agg.MinConfidence = cfg.Labels.MinConfidence
	agg.MetadataKey = cfg.Labels.MetadataKey

	h := &indexphotos.Handler{
		Labels:     agg,
		Headers:    store,
		HeaderSize: indexer.SampleSize,
		Identify:   indexer.NewFingerprinter(logger),
		Indexer:    indexer.New(idx, logger),
		Index:      idx,
		Logger:     logger,
	}
	if cfg.Exif.Enabled {
		r := capture.NewReader(cfg.Exif.PrefixBytes, logger)
		h.Capture = r
		if r.PrefixBytes() > h.HeaderSize {
			h.HeaderSize = r.PrefixBytes()
		}
	}
	return h
}

// NewSearchHandler wires the search Lambda. Intent recognition is used only
// when a Lex bot is configured.
func NewSearchHandler(cfg config.Config, sess *session.Session, idx searchindex.Index, logger *slog.Logger) *searchphotos.Handler {
	var recognizer query.Recognizer
	if lex := intent.NewLex(lexruntimev2.New(sess), cfg.Lex.BotID, cfg.Lex.BotAliasID, cfg.Lex.LocaleID); lex != nil {
		recognizer = lex
	} else {
		logger.Info("intent_recognition_disabled")
	}

	return &searchphotos.Handler{
		Resolver: query.NewResolver(recognizer, logger),
		Index:    idx,
		Region:   cfg.Region,
		Limit:    cfg.SearchLimit,
		Logger:   logger,
	}
}

// NewSyncer wires the orphan sweep.
func NewSyncer(cfg config.Config, sess *session.Session, idx searchindex.Index, logger *slog.Logger) *syncindex.Syncer {
	return &syncindex.Syncer{
		Index:         idx,
		Objects:       objectstore.NewS3(s3.New(sess)),
		DefaultBucket: cfg.Bucket,
		DryRun:        cfg.Sync.DryRun,
		Logger:        logger,
	}
}
