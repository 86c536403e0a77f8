package store

import (
	"context"
	"time"
)

// Well-known settings keys. The local store holds only mirrors and UI
// state; the remote repository stays the system of record.
const (
	KeyBadgeCount       = "badge_count"
	KeyBadgeRefreshedAt = "badge_refreshed_at"
	KeyLastView         = "last_view"
)

// CacheEntry is one cached response snapshot, keyed by request URL and
// scoped to a version-named cache.
type CacheEntry struct {
	ID          string
	CacheName   string
	URL         string
	Body        []byte
	ContentType string
	FetchedAt   time.Time
}

// Store defines the local persistence interface: key-value settings and
// the versioned offline cache.
type Store interface {
	// === Settings ===

	SetSetting(ctx context.Context, key, value string) error
	GetSetting(ctx context.Context, key string) (string, error)
	ClearSettings(ctx context.Context, keep ...string) error

	// === Badge mirror ===

	SetBadgeCount(ctx context.Context, count int) error
	GetBadgeCount(ctx context.Context) (int, bool, error)

	// === Offline cache ===

	PutCacheEntry(ctx context.Context, entry CacheEntry) error
	GetCacheEntry(ctx context.Context, cacheName, url string) (*CacheEntry, error)
	CacheNames(ctx context.Context) ([]string, error)
	DeleteCache(ctx context.Context, cacheName string) error
	DeleteAllCaches(ctx context.Context) error
}
