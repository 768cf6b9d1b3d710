package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tubegrab/tubegrab/internal/catalog"
	"github.com/tubegrab/tubegrab/internal/output"
)

func newFetchCmd() *cobra.Command {
	var sortBy string
	var ascending bool
	var showThumbnails bool

	cmd := &cobra.Command{
		Use:     "fetch [CHANNEL]",
		Short:   "List a channel's full video catalog",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			videos, err := fetchCatalog(cmd.Context(), args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			catalog.SortVideos(videos, sortBy, !ascending)

			output.PrintHeader(fmt.Sprintf("Found %d videos", len(videos)))
			for i, video := range videos {
				fmt.Printf("  %4d  %-12s  %-10s  %s\n", i+1, video.ID, published(video), video.Title)
				if showThumbnails && video.ThumbnailURL != "" {
					fmt.Printf("        %s\n", video.ThumbnailURL)
				}
			}
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "published", "Sort key (published, title)")
	cmd.Flags().BoolVar(&ascending, "asc", false, "Sort ascending (oldest or A first) instead of the descending default")
	cmd.Flags().BoolVar(&showThumbnails, "thumbnails", false, "Include thumbnail URLs")
	return cmd
}

// fetchCatalog wires settings into the catalog client and retrieves the full
// upload list for a channel reference.
func fetchCatalog(ctx context.Context, channelRef string) ([]catalog.Video, error) {
	settings, _, err := loadSettings()
	if err != nil {
		return nil, err
	}
	client, err := catalog.NewClient(settings.ResolveAPIKey(), nil)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingAPIKey) {
			return nil, fmt.Errorf("no API key configured: set api_key via 'tubegrab config' or the %s environment variable", "YOUTUBE_API_KEY")
		}
		return nil, err
	}
	log.Debug().Str("op", "cmd/fetch").Msgf("Fetching catalog for %s", channelRef)
	return client.ChannelVideos(ctx, channelRef)
}

// published trims the ISO-8601 timestamp to its date part for the table.
func published(video catalog.Video) string {
	if len(video.PublishedAt) >= 10 {
		return video.PublishedAt[:10]
	}
	return video.PublishedAt
}
