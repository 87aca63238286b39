package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/spf13/cobra"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/indexphotos"
	"github.com/photo-search/internal/objectstore"
)

type backfillOptions struct {
	bucket    string
	prefix    string
	apply     bool
	batchSize int
}

// keyWalker lists object keys.
type keyWalker interface {
	WalkKeys(ctx context.Context, bucket, prefix string, fn func(key string) error) error
}

// eventHandler indexes a batch of uploads.
type eventHandler interface {
	HandleS3Event(ctx context.Context, event events.S3Event) (indexphotos.Response, error)
}

func newBackfillCmd() *cobra.Command {
	var opts backfillOptions

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Index photos already in the bucket",
		Long: `Index photos that were uploaded before the indexing Lambda existed.

Every key under --prefix is run through the same pipeline as an upload
notification. Photos already in the index are left alone. Without --apply
the keys are only listed.

Examples:
  photoctl backfill --bucket my-photos --prefix vacation/
  photoctl backfill --bucket my-photos --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			if opts.bucket == "" {
				opts.bucket = env.cfg.Bucket
			}
			if opts.bucket == "" {
				return fmt.Errorf("--bucket or BUCKET_NAME is required")
			}

			store := objectstore.NewS3(s3.New(env.sess))
			h := app.NewIndexHandler(env.cfg, env.sess, env.index, env.logger)
			return runBackfill(cmd.Context(), cmd.OutOrStdout(), store, h, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "Bucket to backfill (default $BUCKET_NAME)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Only backfill keys under this prefix")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Index the photos (default is dry-run)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 25, "Keys per indexing batch")

	return cmd
}

func runBackfill(ctx context.Context, out io.Writer, walker keyWalker, h eventHandler, opts backfillOptions) error {
	mode := "DRY-RUN"
	if opts.apply {
		mode = "APPLY"
	}
	fmt.Fprintf(out, "Bucket: %s\nPrefix: %s\nMode: %s\n\n", opts.bucket, opts.prefix, mode)

	batchSize := opts.batchSize
	if batchSize <= 0 {
		batchSize = 25
	}

	var batch events.S3Event
	total := 0
	flush := func() error {
		if len(batch.Records) == 0 {
			return nil
		}
		if _, err := h.HandleS3Event(ctx, batch); err != nil {
			return fmt.Errorf("indexing batch failed: %w", err)
		}
		batch.Records = batch.Records[:0]
		return nil
	}

	err := walker.WalkKeys(ctx, opts.bucket, opts.prefix, func(key string) error {
		if strings.HasSuffix(key, "/") {
			return nil
		}
		total++
		if !opts.apply {
			fmt.Fprintf(out, "would index: %s\n", key)
			return nil
		}
		batch.Records = append(batch.Records, uploadRecord(opts.bucket, key))
		if len(batch.Records) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d photo(s) %s\n", total, map[bool]string{true: "submitted", false: "found"}[opts.apply])
	return nil
}

// uploadRecord builds the notification S3 would send for key. Keys are
// encoded the way S3 encodes them in events.
func uploadRecord(bucket, key string) events.S3EventRecord {
	return events.S3EventRecord{
		EventSource: "aws:s3",
		EventName:   "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: url.QueryEscape(key)},
		},
	}
}
