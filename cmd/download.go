package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tubegrab/tubegrab/internal/catalog"
	"github.com/tubegrab/tubegrab/internal/downloads"
	"github.com/tubegrab/tubegrab/internal/output"
	"github.com/tubegrab/tubegrab/internal/ytdlp"
)

func newDownloadCmd() *cobra.Command {
	var downloadAll bool
	var latest int
	var selection string
	var outputDir string

	cmd := &cobra.Command{
		Use:     "download [CHANNEL]",
		Short:   "Download selected channel videos as audio files",
		Aliases: []string{"dl"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			videos, err := fetchCatalog(cmd.Context(), args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			if len(videos) == 0 {
				output.PrintWarning("Channel has no videos")
				return
			}
			// Newest first, so --latest and 1-based indexes read naturally.
			catalog.SortVideos(videos, "published", true)

			selected, err := selectVideos(videos, downloadAll, latest, selection)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			if failed := runDownloads(selected, outputDir); failed > 0 {
				fmt.Println()
				output.PrintError("Encountered failed download(s)")
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&downloadAll, "all", false, "Download the entire catalog")
	cmd.Flags().IntVar(&latest, "latest", 0, "Download the N most recent videos")
	cmd.Flags().StringVar(&selection, "select", "", "Catalog indexes to download (e.g. 1,3,5-9; see 'tubegrab fetch')")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides configured download path)")
	return cmd
}

func selectVideos(videos []catalog.Video, all bool, latest int, selection string) ([]catalog.Video, error) {
	switch {
	case all:
		return videos, nil
	case latest > 0:
		if latest > len(videos) {
			latest = len(videos)
		}
		return videos[:latest], nil
	case selection != "":
		indexes, err := parseSelection(selection, len(videos))
		if err != nil {
			return nil, err
		}
		selected := make([]catalog.Video, 0, len(indexes))
		for _, idx := range indexes {
			selected = append(selected, videos[idx-1])
		}
		return selected, nil
	}
	return nil, fmt.Errorf("nothing selected: pass --all, --latest N or --select INDEXES")
}

// parseSelection expands a 1-based index list like "1,3,5-9" against a
// catalog of n entries, preserving order and dropping duplicates.
func parseSelection(spec string, n int) ([]int, error) {
	var indexes []int
	seen := make(map[int]bool)
	add := func(idx int) error {
		if idx < 1 || idx > n {
			return fmt.Errorf("index %d out of range (catalog has %d videos)", idx, n)
		}
		if !seen[idx] {
			seen[idx] = true
			indexes = append(indexes, idx)
		}
		return nil
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if start, end, ok := strings.Cut(part, "-"); ok {
			lo, err := strconv.Atoi(strings.TrimSpace(start))
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(end))
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
			if hi < lo {
				return nil, fmt.Errorf("invalid range %q", part)
			}
			for idx := lo; idx <= hi; idx++ {
				if err := add(idx); err != nil {
					return nil, err
				}
			}
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		if err := add(idx); err != nil {
			return nil, err
		}
	}
	if len(indexes) == 0 {
		return nil, fmt.Errorf("empty selection %q", spec)
	}
	return indexes, nil
}

// runDownloads drives the download core for a selection and returns the
// number of failed jobs.
func runDownloads(videos []catalog.Video, outputDir string) int {
	settings, _, err := loadSettings()
	if err != nil {
		output.PrintError(err.Error())
		return len(videos)
	}
	if outputDir != "" {
		settings.DownloadPath = outputDir
	}

	backend, err := ytdlp.NewRunner()
	if err != nil {
		output.PrintError(err.Error())
		return len(videos)
	}

	capacity := workers
	if capacity <= 0 {
		capacity = settings.Workers
	}
	if capacity <= 0 {
		capacity = downloads.DefaultCapacity()
	}
	log.Debug().Str("op", "cmd/download").Msgf("Starting pool with capacity %d for %d jobs", capacity, len(videos))

	display := output.NewDisplay()
	registry := downloads.NewRegistry(settings, downloads.NewPool(capacity), backend, display)
	display.SetRegistry(registry)

	display.Start()
	for _, video := range videos {
		registry.Add(video.ID, video.Title)
	}
	registry.Wait()
	display.Stop()
	registry.Close()

	failed := 0
	for _, job := range registry.Completed() {
		if job.State == downloads.StateFailed {
			failed++
		}
	}
	return failed
}
