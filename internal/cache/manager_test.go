package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmdgt/boletim/internal/cache"
	"github.com/hmdgt/boletim/internal/store"
	"github.com/hmdgt/boletim/tests/testutil"
)

// fakeFetcher serves canned bodies per URL and counts hits.
type fakeFetcher struct {
	bodies map[string][]byte
	hits   map[string]int
	down   bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string][]byte),
		hits:   make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) ([]byte, string, error) {
	f.hits[rawURL]++
	if f.down {
		return nil, "", errors.New("network unreachable")
	}
	body, ok := f.bodies[rawURL]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return body, "application/json", nil
}

const (
	assetURL = "https://raw.example.com/resultados/notificacoes_ativas.json"
	pageURL  = "https://raw.example.com/index.json"
	apiURL   = "https://api.example.com/repos/x/contents/y"
)

func newManager(t *testing.T, version string) (*store.SQLiteStore, *fakeFetcher, *cache.Manager) {
	t.Helper()
	s := testutil.NewTestStore(t)
	f := newFakeFetcher()
	m := cache.NewManager(s, f, version, "api.example.com", []string{assetURL})
	return s, f, m
}

func TestInstallPrecachesAssets(t *testing.T) {
	s, f, m := newManager(t, "v1")
	f.bodies[assetURL] = []byte(`[]`)

	ctx := context.Background()
	m.Install(ctx)

	if m.State() != cache.StateWaiting {
		t.Fatalf("state after install = %v", m.State())
	}

	entry, err := s.GetCacheEntry(ctx, m.CacheName(), assetURL)
	require.NoError(t, err)
	if entry == nil || string(entry.Body) != `[]` {
		t.Errorf("asset not pre-cached: %+v", entry)
	}
}

func TestInstallToleratesFailedAssets(t *testing.T) {
	_, f, m := newManager(t, "v1")
	f.down = true

	m.Install(context.Background())
	if m.State() != cache.StateWaiting {
		t.Errorf("install should not fail outright, state = %v", m.State())
	}
}

func TestActivatePurgesOtherVersions(t *testing.T) {
	s, f, m := newManager(t, "v2")
	f.bodies[assetURL] = []byte(`[]`)

	ctx := context.Background()

	// A previous generation left entries behind.
	require.NoError(t, s.PutCacheEntry(ctx, store.CacheEntry{
		CacheName: "boletim-cache-v1",
		URL:       assetURL,
		Body:      []byte("old"),
	}))

	m.Install(ctx)
	require.NoError(t, m.Activate(ctx))

	if m.State() != cache.StateActive {
		t.Fatalf("state after activate = %v", m.State())
	}

	names, err := s.CacheNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"boletim-cache-v2"}, names)
}

func TestSkipWaitingOnlyActivatesWaiting(t *testing.T) {
	_, _, m := newManager(t, "v1")
	ctx := context.Background()

	// Still installing; skip-waiting is a no-op.
	require.NoError(t, m.SkipWaiting(ctx))
	if m.State() != cache.StateInstalling {
		t.Fatalf("state = %v", m.State())
	}

	m.Install(ctx)
	require.NoError(t, m.SkipWaiting(ctx))
	if m.State() != cache.StateActive {
		t.Errorf("state after skip-waiting = %v", m.State())
	}
}

func TestFetchBypassesNonGET(t *testing.T) {
	s, f, m := newManager(t, "v1")
	f.bodies[pageURL] = []byte("ok")

	ctx := context.Background()
	resp, err := m.Fetch(ctx, cache.Request{Method: "PUT", URL: pageURL})
	require.NoError(t, err)
	if resp.FromCache {
		t.Error("non-GET served from cache")
	}

	entry, err := s.GetCacheEntry(ctx, m.CacheName(), pageURL)
	require.NoError(t, err)
	if entry != nil {
		t.Error("non-GET response was cached")
	}
}

func TestFetchNeverCachesAPIHost(t *testing.T) {
	s, f, m := newManager(t, "v1")
	f.bodies[apiURL] = []byte(`{"content":""}`)

	ctx := context.Background()
	resp, err := m.Fetch(ctx, cache.Request{Method: "GET", URL: apiURL})
	require.NoError(t, err)
	if resp.FromCache {
		t.Error("API response served from cache")
	}

	entry, err := s.GetCacheEntry(ctx, m.CacheName(), apiURL)
	require.NoError(t, err)
	if entry != nil {
		t.Error("API response was cached")
	}

	// When the network is down, API requests fail rather than fall back.
	f.down = true
	if _, err := m.Fetch(ctx, cache.Request{Method: "GET", URL: apiURL}); err == nil {
		t.Error("expected error for API fetch while offline")
	}
}

func TestNavigationNetworkFirstWithFallback(t *testing.T) {
	_, f, m := newManager(t, "v1")
	f.bodies[pageURL] = []byte("fresh")

	ctx := context.Background()
	req := cache.Request{Method: "GET", URL: pageURL, Navigate: true}

	resp, err := m.Fetch(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(resp.Body))
	if resp.FromCache {
		t.Error("network response flagged as cached")
	}

	// Network goes away; the cached copy is served.
	f.down = true
	resp, err = m.Fetch(ctx, req)
	require.NoError(t, err)
	if !resp.FromCache {
		t.Fatal("expected cached fallback")
	}
	require.Equal(t, "fresh", string(resp.Body))
}

func TestNavigationOfflinePlaceholder(t *testing.T) {
	_, f, m := newManager(t, "v1")
	f.down = true

	resp, err := m.Fetch(context.Background(), cache.Request{
		Method: "GET", URL: pageURL, Navigate: true,
	})
	require.NoError(t, err)
	if !resp.Offline {
		t.Fatal("expected offline placeholder")
	}
	require.Equal(t, string(cache.OfflineBody), string(resp.Body))
}

func TestCacheFirstServesStoredCopy(t *testing.T) {
	_, f, m := newManager(t, "v1")
	f.bodies[assetURL] = []byte("v1-body")

	ctx := context.Background()
	req := cache.Request{Method: "GET", URL: assetURL}

	resp, err := m.Fetch(ctx, req)
	require.NoError(t, err)
	if resp.FromCache {
		t.Fatal("first fetch should hit the network")
	}

	// The asset changes upstream; cache-first keeps the stored copy.
	f.bodies[assetURL] = []byte("v2-body")
	resp, err = m.Fetch(ctx, req)
	require.NoError(t, err)
	if !resp.FromCache {
		t.Fatal("second fetch should come from the cache")
	}
	require.Equal(t, "v1-body", string(resp.Body))
	require.Equal(t, 1, f.hits[assetURL])
}
