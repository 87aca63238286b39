// Package cmd provides the photoctl commands for operating the photo index
// outside of Lambda.
package cmd

import (
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/spf13/cobra"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/config"
	"github.com/photo-search/internal/logging"
	"github.com/photo-search/internal/searchindex"
)

// environment is what every command needs: configuration, an AWS session
// and the configured index.
type environment struct {
	cfg    config.Config
	sess   *session.Session
	index  searchindex.Index
	closer io.Closer
	logger *slog.Logger
}

func (e *environment) Close() error {
	return e.closer.Close()
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)

	sess, err := app.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	idx, closer, err := app.NewIndex(cfg, sess, logger)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, sess: sess, index: idx, closer: closer, logger: logger}, nil
}

// NewRootCmd creates the root command for photoctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photoctl",
		Short: "Operate the photo search index",
		Long: `photoctl runs the photo indexing pipeline and searches from a terminal.

It reads the same environment variables as the Lambdas. Set
INDEX_BACKEND=bleve and BLEVE_PATH to work against a local index.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newBackfillCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCountCmd())
	cmd.AddCommand(newSyncCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
