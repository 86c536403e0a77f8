package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cache_entries (
	id           TEXT PRIMARY KEY,
	cache_name   TEXT NOT NULL,
	url          TEXT NOT NULL,
	body         BLOB NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	fetched_at   DATETIME NOT NULL,
	UNIQUE(cache_name, url)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_name ON cache_entries(cache_name);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
