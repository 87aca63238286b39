package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photo-search/internal/config"
	"github.com/photo-search/internal/indexer"
	"github.com/photo-search/internal/logging"
	"github.com/photo-search/internal/query"
	"github.com/photo-search/internal/searchindex"
)

func testConfig() config.Config {
	return config.Config{
		Region:      "us-east-1",
		Index:       config.IndexConfig{Backend: config.BackendOpenSearch, Name: "photos"},
		Lex:         config.LexConfig{BotAliasID: "TSTALIASID", LocaleID: "en_US"},
		Labels:      config.LabelsConfig{MaxLabels: 5, MinConfidence: 80, MetadataKey: "customlabels"},
		Exif:        config.ExifConfig{Enabled: true, PrefixBytes: 1024},
		SearchLimit: 25,
	}
}

func TestNewIndex_SelectsBackend(t *testing.T) {
	logger := logging.New(&bytes.Buffer{}, "error")
	cfg := testConfig()

	idx, closer, err := NewIndex(cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, searchindex.Disabled{}, idx)
	assert.NoError(t, closer.Close())

	cfg.Index.Endpoint = "https://search-photos.us-east-1.es.amazonaws.com"
	idx, _, err = NewIndex(cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &searchindex.OpenSearch{}, idx)

	sess, err := NewSession(cfg)
	require.NoError(t, err)
	idx, _, err = NewIndex(cfg, sess, logger)
	require.NoError(t, err)
	assert.IsType(t, &searchindex.OpenSearch{}, idx)

	cfg.Index.Backend = config.BackendBleve
	idx, closer, err = NewIndex(cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &searchindex.Bleve{}, idx)
	assert.NoError(t, closer.Close())
}

func TestNewIndexHandler_AppliesLabelSettings(t *testing.T) {
	cfg := testConfig()
	sess, err := NewSession(cfg)
	require.NoError(t, err)
	logger := logging.New(&bytes.Buffer{}, "error")

	h := NewIndexHandler(cfg, sess, searchindex.Disabled{}, logger)
	require.NotNil(t, h.Capture)
	require.NotNil(t, h.Headers)
	assert.Equal(t, searchindex.Disabled{}, h.Index)
	assert.Equal(t, int64(1024), h.HeaderSize)

	cfg.Exif.PrefixBytes = 64 * 1024
	h = NewIndexHandler(cfg, sess, searchindex.Disabled{}, logger)
	assert.Equal(t, int64(64*1024), h.HeaderSize)

	cfg.Exif.Enabled = false
	h = NewIndexHandler(cfg, sess, searchindex.Disabled{}, logger)
	assert.Nil(t, h.Capture)
	assert.Equal(t, int64(indexer.SampleSize), h.HeaderSize)
}

func TestNewSearchHandler_WithoutBot(t *testing.T) {
	cfg := testConfig()
	sess, err := NewSession(cfg)
	require.NoError(t, err)

	h := NewSearchHandler(cfg, sess, searchindex.Disabled{}, logging.New(&bytes.Buffer{}, "error"))
	assert.Equal(t, 25, h.Limit)
	assert.Equal(t, "us-east-1", h.Region)

	res, ok := h.Resolver.(*query.Resolver)
	require.True(t, ok)
	assert.Equal(t, query.SourceText, res.Resolve(context.Background(), "dogs").Source)
}

func TestNewSyncer_AppliesSyncSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = "photos-bucket"
	sess, err := NewSession(cfg)
	require.NoError(t, err)
	logger := logging.New(&bytes.Buffer{}, "error")

	s := NewSyncer(cfg, sess, searchindex.Disabled{}, logger)
	assert.False(t, s.DryRun)
	assert.Equal(t, "photos-bucket", s.DefaultBucket)

	cfg.Sync.DryRun = true
	s = NewSyncer(cfg, sess, searchindex.Disabled{}, logger)
	assert.True(t, s.DryRun)
}
