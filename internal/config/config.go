package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/tubegrab/tubegrab/internal/utils"
)

const EnvAPIKey = "YOUTUBE_API_KEY"

// Settings is the persisted key-value configuration. The download engine
// receives it by value and snapshots the download path at job creation, so
// edits never retroactively affect in-flight jobs.
type Settings struct {
	DownloadPath string `yaml:"download_path"`
	APIKey       string `yaml:"api_key,omitempty"`
	Workers      int    `yaml:"workers,omitempty"`
}

func Defaults() Settings {
	return Settings{
		DownloadPath: utils.DefaultDownloadDir(),
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error locating user config dir: %w", err)
	}
	return filepath.Join(base, "tubegrab", "config.yaml"), nil
}

// Load reads settings from path, returning defaults when the file does not
// exist yet.
func Load(path string) (Settings, error) {
	settings := Defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Defaults(), fmt.Errorf("error parsing config file: %w", err)
	}
	if settings.DownloadPath == "" {
		settings.DownloadPath = utils.DefaultDownloadDir()
	}
	return settings, nil
}

// Save writes settings to path, creating parent directories as needed.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveAPIKey prefers the persisted key and falls back to the environment.
func (s Settings) ResolveAPIKey() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	return os.Getenv(EnvAPIKey)
}
