package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaStatements create the request store schema. Column types are kept to
// TEXT so the same statements run on SQLite and PostgreSQL. Timestamps are
// stored in a fixed-width UTC layout so they sort lexically.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS requests (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,

    -- Redacted documents with fingerprint-only PII manifests
    documents TEXT NOT NULL,

    -- Analysis outcome
    result TEXT,
    error TEXT,
    digest TEXT
)`,
	`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status)`,
}

// insertSchemaVersion records the applied schema version.
const insertSchemaVersion = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?) ON CONFLICT (version) DO NOTHING`

// getSchemaVersion retrieves the newest applied schema version.
const getSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`

const requestColumns = `id, status, created_at, updated_at, documents, result, error, digest`
