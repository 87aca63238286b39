package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/photo-search/internal/app"
	"github.com/photo-search/internal/searchphotos"
)

type searchOptions struct {
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed photos",
		Long: `Search indexed photos the way the search Lambda does.

Examples:
  photoctl search "show me dogs on the beach"
  photoctl search sunset --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, q string, opts searchOptions) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	h := app.NewSearchHandler(env.cfg, env.sess, env.index, env.logger)
	resp, err := h.HandleAPI(cmd.Context(), events.APIGatewayProxyRequest{
		HTTPMethod:            "GET",
		QueryStringParameters: map[string]string{"q": q},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("search failed: %s", resp.Body)
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		fmt.Fprintln(out, resp.Body)
		return nil
	}

	var body searchphotos.SearchResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		return fmt.Errorf("failed to decode search response: %w", err)
	}
	fmt.Fprintf(out, "keywords: %s\n", strings.Join(body.Keywords, ", "))
	if body.Error != "" {
		fmt.Fprintf(out, "error: %s\n", body.Error)
	}
	for _, r := range body.Results {
		fmt.Fprintf(out, "%s\t%s\n", r.URL, strings.Join(r.Labels, ","))
	}
	fmt.Fprintf(out, "%d result(s)\n", len(body.Results))
	return nil
}
