package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	if cfg.Remote.Repo != "Hmdgt/Tol_v2" {
		t.Errorf("repo = %q", cfg.Remote.Repo)
	}
	if cfg.Badge.PollIntervalSec != 60 {
		t.Errorf("poll interval = %d", cfg.Badge.PollIntervalSec)
	}
	if cfg.Badge.FullRefreshEvery != 5 {
		t.Errorf("full refresh every = %d", cfg.Badge.FullRefreshEvery)
	}
	if cfg.Cache.Version != "v1" {
		t.Errorf("cache version = %q", cfg.Cache.Version)
	}
	require.Len(t, cfg.Cache.Assets, 2)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
remote:
  repo: outra/conta
  branch: dev
badge:
  poll_interval_sec: 15
cache:
  version: v9
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	if cfg.Remote.Repo != "outra/conta" {
		t.Errorf("repo = %q", cfg.Remote.Repo)
	}
	if cfg.Remote.Branch != "dev" {
		t.Errorf("branch = %q", cfg.Remote.Branch)
	}
	// Untouched keys keep their defaults.
	if cfg.Remote.APIBaseURL != "https://api.github.com" {
		t.Errorf("api base = %q", cfg.Remote.APIBaseURL)
	}
	if cfg.Badge.PollIntervalSec != 15 {
		t.Errorf("poll interval = %d", cfg.Badge.PollIntervalSec)
	}
	if cfg.Cache.Version != "v9" {
		t.Errorf("cache version = %q", cfg.Cache.Version)
	}
}

func TestLoadConfigClampsInvalidPolling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
badge:
  poll_interval_sec: -3
  full_refresh_every: 0
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	if cfg.Badge.PollIntervalSec != 60 {
		t.Errorf("poll interval = %d", cfg.Badge.PollIntervalSec)
	}
	if cfg.Badge.FullRefreshEvery != 5 {
		t.Errorf("full refresh every = %d", cfg.Badge.FullRefreshEvery)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Remote.Repo = "outra/conta"
	cfg.Cache.Version = "v3"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	if loaded.Remote.Repo != "outra/conta" {
		t.Errorf("repo = %q", loaded.Remote.Repo)
	}
	if loaded.Cache.Version != "v3" {
		t.Errorf("cache version = %q", loaded.Cache.Version)
	}
}

func TestRawURL(t *testing.T) {
	c := RemoteConfig{
		Repo:       "Hmdgt/Tol_v2",
		Branch:     "main",
		RawBaseURL: "https://raw.githubusercontent.com",
	}
	got := c.RawURL("resultados/notificacoes_ativas.json")
	want := "https://raw.githubusercontent.com/Hmdgt/Tol_v2/main/resultados/notificacoes_ativas.json"
	if got != want {
		t.Errorf("RawURL = %q", got)
	}
}
