package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/syncindex"
)

func newSyncCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Remove index documents whose photo is gone",
		Long: `Scan the index and check every document's object in the bucket.

Documents whose object no longer exists are orphans. Without --apply the
orphans are only listed.

Examples:
  photoctl sync
  photoctl sync --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			s := app.NewSyncer(env.cfg, env.sess, env.index, env.logger)
			s.DryRun = !apply
			return runSync(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Delete the orphans (default is dry-run)")

	return cmd
}

func runSync(ctx context.Context, out io.Writer, s *syncindex.Syncer) error {
	mode := "APPLY"
	if s.DryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(out, "Mode: %s\n\n", mode)

	result, err := s.Run(ctx)
	if err != nil {
		return err
	}

	for _, id := range result.OrphanIDs {
		fmt.Fprintf(out, "  orphan: %s\n", id)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
	fmt.Fprintf(out, "\nScanned: %d, orphans: %d, removed: %d (%s)\n",
		result.TotalScanned, len(result.OrphanIDs), result.OrphansRemoved, result.Duration)

	if len(result.Errors) > 0 {
		return fmt.Errorf("sync finished with %d error(s)", len(result.Errors))
	}
	return nil
}
