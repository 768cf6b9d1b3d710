package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tubegrab/tubegrab/internal/output"
)

func newConfigCmd() *cobra.Command {
	var downloadPath string
	var apiKey string
	var poolWorkers int

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update persisted configuration",
		Run: func(cmd *cobra.Command, args []string) {
			settings, path, err := loadSettings()
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}

			changed := false
			if downloadPath != "" {
				settings.DownloadPath = downloadPath
				changed = true
			}
			if apiKey != "" {
				settings.APIKey = apiKey
				changed = true
			}
			if poolWorkers > 0 {
				settings.Workers = poolWorkers
				changed = true
			}
			if changed {
				if err := settings.Save(path); err != nil {
					output.PrintError(err.Error())
					os.Exit(1)
				}
				output.PrintSuccess("Configuration saved")
			}

			fmt.Printf("  config file:   %s\n", path)
			fmt.Printf("  download_path: %s\n", settings.DownloadPath)
			fmt.Printf("  api_key:       %s\n", maskKey(settings.ResolveAPIKey()))
			if settings.Workers > 0 {
				fmt.Printf("  workers:       %d\n", settings.Workers)
			}
		},
	}

	cmd.Flags().StringVar(&downloadPath, "download-path", "", "Set the download directory")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Set the YouTube Data API key")
	cmd.Flags().IntVar(&poolWorkers, "workers", 0, "Set the default concurrent download count")
	return cmd
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 6 {
		return "******"
	}
	return key[:4] + "..." + key[len(key)-2:]
}
