package cli

import (
	"fmt"
	"io"

	"github.com/SergeiKhy/shorturls/internal/handler"
	"github.com/spf13/cobra"
)

type clientOptions struct {
	server string
}

func (o *clientOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.server, "server", "", "service base URL (defaults to BASE_URL)")
}

func (o *clientOptions) client(root *rootOptions) (*Client, error) {
	if o.server != "" {
		return NewClient(o.server), nil
	}
	cfg, err := root.load()
	if err != nil {
		return nil, err
	}
	return NewClient(cfg.App.BaseURL), nil
}

func newCreateCmd(root *rootOptions) *cobra.Command {
	var (
		clientOpts clientOptions
		longURL    string
		validity   int
		shortcode  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a short URL on a running service",
		Example: `  shorturls create --url "https://go.dev/doc/effective_go"
  shorturls create --url "https://example.com" --validity 60 --shortcode promo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientOpts.client(root)
			if err != nil {
				return err
			}

			req := handler.CreateShortURLRequest{URL: &longURL}
			if cmd.Flags().Changed("validity") {
				req.Validity = &validity
			}
			if shortcode != "" {
				req.Shortcode = &shortcode
			}

			created, err := client.Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			printCreated(cmd.OutOrStdout(), created)
			return nil
		},
	}

	clientOpts.register(cmd)
	cmd.Flags().StringVar(&longURL, "url", "", "the long URL to shorten")
	cmd.Flags().IntVar(&validity, "validity", 0, "validity in minutes (service default when omitted)")
	cmd.Flags().StringVar(&shortcode, "shortcode", "", "custom shortcode, 3-10 alphanumeric characters")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	var clientOpts clientOptions

	cmd := &cobra.Command{
		Use:   "stats <shortcode>",
		Short: "Show click statistics for a short URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientOpts.client(root)
			if err != nil {
				return err
			}

			stats, err := client.Stats(cmd.Context(), args[0])
			if IsNotFound(err) {
				return fmt.Errorf("shortcode %q not found", args[0])
			}
			if err != nil {
				return err
			}

			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	clientOpts.register(cmd)
	return cmd
}

func printCreated(w io.Writer, created *handler.CreateShortURLResponse) {
	fmt.Fprintf(w, "Short link: %s\n", created.ShortLink)
	fmt.Fprintf(w, "Expires:    %s\n", created.Expiry)
}

func printStats(w io.Writer, stats *handler.StatisticsResponse) {
	fmt.Fprintf(w, "Shortcode:    %s\n", stats.Shortcode)
	fmt.Fprintf(w, "Original URL: %s\n", stats.OriginalURL)
	fmt.Fprintf(w, "Created:      %s\n", stats.CreatedAt)
	fmt.Fprintf(w, "Expires:      %s\n", stats.ExpiryTime)
	fmt.Fprintf(w, "Total clicks: %d\n", stats.TotalClicks)
	for i, click := range stats.Clicks {
		fmt.Fprintf(w, "  %d. %s  referrer=%s  location=%s\n", i+1, click.Timestamp, click.Referrer, click.Location)
	}
}
