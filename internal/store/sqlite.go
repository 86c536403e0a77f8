package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SetSetting stores a key-value setting, replacing any previous value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// GetSetting returns the value for key, or the empty string when unset.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		"SELECT value FROM settings WHERE key = ?", key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %q: %w", key, err)
	}
	return value, nil
}

// ClearSettings deletes every setting except the listed keys.
func (s *SQLiteStore) ClearSettings(ctx context.Context, keep ...string) error {
	query := "DELETE FROM settings"
	args := make([]interface{}, 0, len(keep))
	if len(keep) > 0 {
		query += " WHERE key NOT IN (?" +
			repeatPlaceholder(len(keep)-1) + ")"
		for _, k := range keep {
			args = append(args, k)
		}
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}
	return nil
}

// SetBadgeCount mirrors the unread count locally for tiered refreshes.
func (s *SQLiteStore) SetBadgeCount(ctx context.Context, count int) error {
	if err := s.SetSetting(ctx, KeyBadgeCount, strconv.Itoa(count)); err != nil {
		return err
	}
	return s.SetSetting(ctx, KeyBadgeRefreshedAt,
		time.Now().UTC().Format(time.RFC3339))
}

// GetBadgeCount returns the mirrored unread count. The second return is
// false when no count has been mirrored yet.
func (s *SQLiteStore) GetBadgeCount(ctx context.Context) (int, bool, error) {
	value, err := s.GetSetting(ctx, KeyBadgeCount)
	if err != nil {
		return 0, false, err
	}
	if value == "" {
		return 0, false, nil
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parsing mirrored badge count: %w", err)
	}
	return count, true, nil
}

// PutCacheEntry inserts or replaces a cached response snapshot.
func (s *SQLiteStore) PutCacheEntry(ctx context.Context, entry CacheEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (
			id, cache_name, url, body, content_type, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CacheName, entry.URL, entry.Body,
		entry.ContentType, entry.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching %s: %w", entry.URL, err)
	}
	return nil
}

// GetCacheEntry returns the cached snapshot for a URL within the named
// cache, or nil when there is no match.
func (s *SQLiteStore) GetCacheEntry(ctx context.Context, cacheName, url string) (*CacheEntry, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, cache_name, url, body, content_type, fetched_at
		FROM cache_entries WHERE cache_name = ? AND url = ?`,
		cacheName, url,
	)

	var (
		entry     CacheEntry
		fetchedAt time.Time
	)
	err := row.Scan(
		&entry.ID, &entry.CacheName, &entry.URL,
		&entry.Body, &entry.ContentType, &fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", url, err)
	}

	entry.FetchedAt = fetchedAt
	return &entry, nil
}

// CacheNames returns the distinct cache names currently stored.
func (s *SQLiteStore) CacheNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT DISTINCT cache_name FROM cache_entries ORDER BY cache_name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing cache names: %w", err)
	}
	return names, nil
}

// DeleteCache removes every entry belonging to the named cache.
func (s *SQLiteStore) DeleteCache(ctx context.Context, cacheName string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE cache_name = ?", cacheName,
	)
	if err != nil {
		return fmt.Errorf("deleting cache %q: %w", cacheName, err)
	}
	return nil
}

// DeleteAllCaches removes every cached entry regardless of cache name.
func (s *SQLiteStore) DeleteAllCaches(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("deleting caches: %w", err)
	}
	return nil
}

// repeatPlaceholder returns n copies of ", ?" for IN clauses.
func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
