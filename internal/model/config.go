package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig identifies the GitHub repository used as the content store.
type RemoteConfig struct {
	// Repo is the "owner/name" slug of the backing repository.
	Repo string `mapstructure:"repo" yaml:"repo"`

	// Branch is the branch holding the JSON files.
	Branch string `mapstructure:"branch" yaml:"branch"`

	// APIBaseURL is the Contents API root. Overridable for tests.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// RawBaseURL is the raw-content root used for cacheable asset
	// downloads. Overridable for tests.
	RawBaseURL string `mapstructure:"raw_base_url" yaml:"raw_base_url"`
}

// RawURL returns the raw-content URL for a repository path.
func (c RemoteConfig) RawURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.RawBaseURL, c.Repo, c.Branch, path)
}

// BadgeConfig controls the unread-count poller.
type BadgeConfig struct {
	// PollIntervalSec is how often (in seconds) the badge ticks while
	// the terminal is focused.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// FullRefreshEvery is the tick period of full remote refreshes;
	// other ticks serve the locally mirrored count.
	FullRefreshEvery int `mapstructure:"full_refresh_every" yaml:"full_refresh_every"`
}

// CacheConfig controls the versioned offline asset cache.
type CacheConfig struct {
	// Version names the current cache generation; bumping it evicts
	// every previously cached asset on activation.
	Version string `mapstructure:"version" yaml:"version"`

	// Assets is the list of remote paths pre-fetched on install.
	Assets []string `mapstructure:"assets" yaml:"assets"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`
	Badge  BadgeConfig  `mapstructure:"badge" yaml:"badge"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/boletim/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "boletim", "config.yaml")
}

// DefaultDBPath returns the default path for the local SQLite database.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "boletim.db")
	}
	return filepath.Join(home, ".config", "boletim", "boletim.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Remote: RemoteConfig{
			Repo:       "Hmdgt/Tol_v2",
			Branch:     "main",
			APIBaseURL: "https://api.github.com",
			RawBaseURL: "https://raw.githubusercontent.com",
		},
		Badge: BadgeConfig{
			PollIntervalSec:  60,
			FullRefreshEvery: 5,
		},
		Cache: CacheConfig{
			Version: "v1",
			Assets: []string{
				"resultados/notificacoes_ativas.json",
				"resultados/notificacoes_historico.json",
			},
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("remote.repo", "Hmdgt/Tol_v2")
	v.SetDefault("remote.branch", "main")
	v.SetDefault("remote.api_base_url", "https://api.github.com")
	v.SetDefault("remote.raw_base_url", "https://raw.githubusercontent.com")
	v.SetDefault("badge.poll_interval_sec", 60)
	v.SetDefault("badge.full_refresh_every", 5)
	v.SetDefault("cache.version", "v1")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Badge.PollIntervalSec <= 0 {
		cfg.Badge.PollIntervalSec = 60
	}
	if cfg.Badge.FullRefreshEvery <= 0 {
		cfg.Badge.FullRefreshEvery = 5
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote", cfg.Remote)
	v.Set("badge", cfg.Badge)
	v.Set("cache", cfg.Cache)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
