package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tubegrab/tubegrab/internal/config"
	"github.com/tubegrab/tubegrab/internal/utils"
)

var (
	workers    int
	debug      bool
	configPath string
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "tubegrab",
	Short:   "Tubegrab fetches a channel's video catalog and downloads selections as audio",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Max concurrent downloads (default: CPU count, clamped to 2-8)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// loadSettings resolves the config file path (flag or platform default) and
// reads it, returning defaults when no file exists.
func loadSettings() (config.Settings, string, error) {
	path := configPath
	if path == "" {
		resolved, err := config.DefaultPath()
		if err != nil {
			return config.Defaults(), "", err
		}
		path = resolved
	}
	settings, err := config.Load(path)
	return settings, path, err
}
