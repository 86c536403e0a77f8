package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hmdgt/boletim/internal/app"
	"github.com/hmdgt/boletim/internal/cache"
	"github.com/hmdgt/boletim/internal/credential"
	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boletim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}

	dbPath := model.DefaultDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer s.Close()

	// A missing token is fine; the app stays read-only until one is set.
	token, err := credential.Token()
	if err != nil {
		token = ""
	}

	client := remote.NewClient(
		cfg.Remote.APIBaseURL,
		cfg.Remote.Repo,
		cfg.Remote.Branch,
		token,
	)

	assets := make([]string, len(cfg.Cache.Assets))
	for i, a := range cfg.Cache.Assets {
		assets[i] = cfg.Remote.RawURL(a)
	}
	caches := cache.NewManager(
		s,
		cache.NewHTTPFetcher(),
		cfg.Cache.Version,
		client.APIHost(),
		assets,
	)

	ctx := context.Background()
	caches.Install(ctx)
	if err := caches.Activate(ctx); err != nil {
		return fmt.Errorf("activating asset cache: %w", err)
	}

	p := tea.NewProgram(
		app.New(cfg, s, client, caches),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	return nil
}
