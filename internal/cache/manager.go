package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hmdgt/boletim/internal/store"
)

// State tracks the lifecycle of a cache generation, mirroring a service
// worker: a new version installs, waits, and activates, at which point
// every other generation is purged.
type State int

const (
	StateInstalling State = iota
	StateWaiting
	StateActive
)

// cacheNamePrefix scopes this application's rows in the cache table.
const cacheNamePrefix = "boletim-cache-"

// Request describes an outgoing fetch routed through the cache manager.
type Request struct {
	Method string
	URL    string

	// Navigate marks page-level requests, which use a network-first
	// policy with a cached (or offline placeholder) fallback.
	Navigate bool
}

// Response is the result of a routed fetch.
type Response struct {
	Body        []byte
	ContentType string
	FromCache   bool
	Offline     bool
}

// Fetcher is the network leg of the cache manager.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (body []byte, contentType string, err error)
}

// HTTPFetcher implements Fetcher over a plain HTTP client.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a 30 second timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch performs a GET and returns the body and content type on 2xx.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// OfflineBody is served for navigations when both the network and the
// cache come up empty.
var OfflineBody = []byte("Sem ligação. Os dados mais recentes não estão disponíveis offline.")

// Manager routes fetches through a version-named local cache with the
// same policies the app used as a service worker: bypass for non-GET
// and API-host requests, network-first for navigations, cache-first for
// static assets.
type Manager struct {
	store   store.Store
	fetcher Fetcher
	version string
	apiHost string
	assets  []string

	mu    sync.Mutex
	state State
}

// NewManager creates a cache manager for the given version. assets are
// the URLs pre-fetched on install; apiHost requests are never cached.
func NewManager(s store.Store, f Fetcher, version, apiHost string, assets []string) *Manager {
	return &Manager{
		store:   s,
		fetcher: f,
		version: version,
		apiHost: apiHost,
		assets:  assets,
		state:   StateInstalling,
	}
}

// CacheName returns the version-scoped cache name.
func (m *Manager) CacheName() string {
	return cacheNamePrefix + m.version
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Install pre-fetches the configured asset list into the version-named
// cache. Failures on individual assets are swallowed; install never
// fails outright. The manager ends up waiting for activation.
func (m *Manager) Install(ctx context.Context) {
	for _, asset := range m.assets {
		body, contentType, err := m.fetcher.Fetch(ctx, asset)
		if err != nil {
			continue
		}
		_ = m.store.PutCacheEntry(ctx, store.CacheEntry{
			CacheName:   m.CacheName(),
			URL:         asset,
			Body:        body,
			ContentType: contentType,
		})
	}

	m.mu.Lock()
	m.state = StateWaiting
	m.mu.Unlock()
}

// Activate deletes every cache whose name differs from the current
// version name and marks this generation active.
func (m *Manager) Activate(ctx context.Context) error {
	names, err := m.store.CacheNames(ctx)
	if err != nil {
		return fmt.Errorf("listing caches: %w", err)
	}

	current := m.CacheName()
	for _, name := range names {
		if name == current {
			continue
		}
		if err := m.store.DeleteCache(ctx, name); err != nil {
			return fmt.Errorf("purging cache %q: %w", name, err)
		}
	}

	m.mu.Lock()
	m.state = StateActive
	m.mu.Unlock()
	return nil
}

// SkipWaiting forces immediate activation of a waiting generation. It
// is the control message behind the user-triggered "update now" flow.
func (m *Manager) SkipWaiting(ctx context.Context) error {
	m.mu.Lock()
	waiting := m.state == StateWaiting
	m.mu.Unlock()

	if !waiting {
		return nil
	}
	return m.Activate(ctx)
}

// Fetch routes a request according to the cache policy. Non-GET
// requests and anything on the remote API host go straight to the
// network and are never cached.
func (m *Manager) Fetch(ctx context.Context, req Request) (Response, error) {
	if req.Method != "" && req.Method != http.MethodGet {
		return m.networkOnly(ctx, req)
	}
	if hostOf(req.URL) == m.apiHost {
		return m.networkOnly(ctx, req)
	}

	if req.Navigate {
		return m.networkFirst(ctx, req)
	}
	return m.cacheFirst(ctx, req)
}

// networkOnly fetches without touching the cache in either direction.
func (m *Manager) networkOnly(ctx context.Context, req Request) (Response, error) {
	body, contentType, err := m.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return Response{}, err
	}
	return Response{Body: body, ContentType: contentType}, nil
}

// networkFirst tries the network and falls back to the cached copy,
// then to the offline placeholder.
func (m *Manager) networkFirst(ctx context.Context, req Request) (Response, error) {
	body, contentType, err := m.fetcher.Fetch(ctx, req.URL)
	if err == nil {
		_ = m.store.PutCacheEntry(ctx, store.CacheEntry{
			CacheName:   m.CacheName(),
			URL:         req.URL,
			Body:        body,
			ContentType: contentType,
		})
		return Response{Body: body, ContentType: contentType}, nil
	}

	entry, cacheErr := m.store.GetCacheEntry(ctx, m.CacheName(), req.URL)
	if cacheErr == nil && entry != nil {
		return Response{
			Body:        entry.Body,
			ContentType: entry.ContentType,
			FromCache:   true,
		}, nil
	}

	return Response{Body: OfflineBody, Offline: true}, nil
}

// cacheFirst serves the cached copy when present, otherwise fetches and
// caches the network response.
func (m *Manager) cacheFirst(ctx context.Context, req Request) (Response, error) {
	entry, err := m.store.GetCacheEntry(ctx, m.CacheName(), req.URL)
	if err == nil && entry != nil {
		return Response{
			Body:        entry.Body,
			ContentType: entry.ContentType,
			FromCache:   true,
		}, nil
	}

	body, contentType, err := m.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return Response{}, err
	}

	_ = m.store.PutCacheEntry(ctx, store.CacheEntry{
		CacheName:   m.CacheName(),
		URL:         req.URL,
		Body:        body,
		ContentType: contentType,
	})

	return Response{Body: body, ContentType: contentType}, nil
}

// hostOf extracts the host from a URL, tolerating bare paths.
func hostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
