package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photo-search/internal/indexphotos"
)

type fakeWalker []string

func (f fakeWalker) WalkKeys(ctx context.Context, bucket, prefix string, fn func(key string) error) error {
	for _, k := range f {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

type recordingHandler struct {
	batches [][]string
	err     error
}

func (r *recordingHandler) HandleS3Event(ctx context.Context, event events.S3Event) (indexphotos.Response, error) {
	var keys []string
	for _, rec := range event.Records {
		key, _ := url.QueryUnescape(rec.S3.Object.Key)
		keys = append(keys, key)
	}
	r.batches = append(r.batches, keys)
	return indexphotos.Response{StatusCode: 200}, r.err
}

func TestRunBackfill_DryRun(t *testing.T) {
	var out bytes.Buffer
	h := &recordingHandler{}

	err := runBackfill(context.Background(), &out, fakeWalker{"a.jpg", "trip/", "trip/b.jpg"}, h,
		backfillOptions{bucket: "photos"})
	require.NoError(t, err)

	assert.Empty(t, h.batches)
	assert.Contains(t, out.String(), "would index: a.jpg")
	assert.Contains(t, out.String(), "would index: trip/b.jpg")
	assert.NotContains(t, out.String(), "would index: trip/\n")
	assert.Contains(t, out.String(), "2 photo(s) found")
}

func TestRunBackfill_ApplyBatches(t *testing.T) {
	var out bytes.Buffer
	h := &recordingHandler{}

	err := runBackfill(context.Background(), &out, fakeWalker{"a.jpg", "b c.jpg", "d.jpg"}, h,
		backfillOptions{bucket: "photos", apply: true, batchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a.jpg", "b c.jpg"}, {"d.jpg"}}, h.batches)
	assert.Contains(t, out.String(), "3 photo(s) submitted")
}

func TestRunBackfill_StopsOnBatchError(t *testing.T) {
	h := &recordingHandler{err: errors.New("malformed")}

	err := runBackfill(context.Background(), &bytes.Buffer{}, fakeWalker{"a.jpg", "b.jpg"}, h,
		backfillOptions{bucket: "photos", apply: true, batchSize: 1})
	require.Error(t, err)
	assert.Len(t, h.batches, 1)
}

func TestUploadRecord_EncodesKey(t *testing.T) {
	rec := uploadRecord("photos", "my trip/day 1.jpg")
	assert.Equal(t, "my+trip%2Fday+1.jpg", rec.S3.Object.Key)
	assert.Equal(t, "photos", rec.S3.Bucket.Name)
}
