package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"getgsa/onboarding/pkg/config"
)

// Database drivers understood by the SQL store.
const (
	DriverSQLite   = "sqlite"   // modernc.org/sqlite, pure Go
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3, cgo
	DriverPostgres = "postgres" // github.com/lib/pq
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLStore implements Store on database/sql. It serves SQLite through either
// driver and PostgreSQL; queries are written with ? placeholders and rebound
// for PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	driver  string
	backend string
	logger  *slog.Logger
	now     func() time.Time
}

// NewSQLStore wraps an open database. The schema is not touched; call
// Migrate before first use, or use Open.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	backend := "sqlite"
	if driver == DriverPostgres {
		backend = "postgres"
	}
	return &SQLStore{
		db:      db,
		driver:  driver,
		backend: backend,
		logger:  slog.Default().With("component", "store.sql", "backend", backend),
		now:     time.Now,
	}
}

// Open connects to the database described by cfg, applies connection
// settings and migrates the schema.
func Open(ctx context.Context, cfg config.StorageConfig) (*SQLStore, error) {
	driver, dsn := cfg.Driver, cfg.Path
	switch cfg.Backend {
	case "postgres":
		driver, dsn = DriverPostgres, cfg.DSN
		if dsn == "" {
			return nil, NewStorageError("postgres", "open", errors.New("dsn is required"))
		}
	case "sqlite":
		if driver == "" {
			driver = DriverSQLite
		}
		if driver != DriverSQLite && driver != DriverSQLite3 {
			return nil, fmt.Errorf("unsupported sqlite driver: %q", driver)
		}
		if dsn == "" {
			return nil, NewStorageError("sqlite", "open", errors.New("path is required"))
		}
		if !inMemory(dsn) {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, NewStorageError("sqlite", "create_directory", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported sql backend: %q", cfg.Backend)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, NewStorageError(cfg.Backend, "open", err)
	}

	maxOpen := cfg.MaxOpenConns
	if driver != DriverPostgres && inMemory(dsn) {
		// Every connection to :memory: is a separate database.
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}

	s := NewSQLStore(db, driver)
	if err := s.initialize(ctx, cfg, inMemory(dsn)); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("request store opened", "driver", driver)
	return s, nil
}

func inMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// initialize applies SQLite pragmas and migrates the schema.
func (s *SQLStore) initialize(ctx context.Context, cfg config.StorageConfig, memory bool) error {
	if s.backend == "sqlite" {
		if cfg.BusyTimeout > 0 {
			ms := cfg.BusyTimeout.Milliseconds()
			if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", ms)); err != nil {
				return NewStorageError(s.backend, "set_busy_timeout", err)
			}
		}
		if !memory {
			if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
				return NewStorageError(s.backend, "enable_wal", err)
			}
		}
	}
	return s.Migrate(ctx)
}

// Migrate creates missing tables and indexes and records the schema version.
// It fails if the database was written by a newer schema.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return NewStorageError(s.backend, "migrate", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(insertSchemaVersion), SchemaVersion, formatTime(s.now())); err != nil {
		return NewStorageError(s.backend, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(s.backend, "get_schema_version", err)
	}
	if version > SchemaVersion {
		return NewStorageError(s.backend, "migrate",
			fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion))
	}
	return nil
}

// Create persists a new request.
func (s *SQLStore) Create(ctx context.Context, req *Request) error {
	c := clone(req)
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = StatusPending
	}

	docs, err := json.Marshal(c.Documents)
	if err != nil {
		return NewStorageError(s.backend, "create", fmt.Errorf("marshal documents: %w", err))
	}
	result, digest, err := marshalResult(c.Result)
	if err != nil {
		return NewStorageError(s.backend, "create", err)
	}

	query := `INSERT INTO requests (` + requestColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, s.rebind(query),
		c.ID,
		string(c.Status),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
		string(docs),
		result,
		nullString(c.Error),
		digest,
	)
	if err != nil {
		return NewStorageError(s.backend, "create", err)
	}
	return nil
}

// Get returns the request with the given ID.
func (s *SQLStore) Get(ctx context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	r, err := scanRequest(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, NewStorageError(s.backend, "get", err)
	}
	return r, nil
}

// SaveResult stores the result and marks the request processed.
func (s *SQLStore) SaveResult(ctx context.Context, id string, result *Result) error {
	data, digest, err := marshalResult(result)
	if err != nil {
		return NewStorageError(s.backend, "save_result", err)
	}

	query := `UPDATE requests SET status = ?, result = ?, error = NULL, digest = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(query),
		string(StatusProcessed), data, digest, formatTime(s.now()), id)
	if err != nil {
		return NewStorageError(s.backend, "save_result", err)
	}
	return s.checkAffected(res, id, "save_result")
}

// MarkError records an analysis failure.
func (s *SQLStore) MarkError(ctx context.Context, id string, message string) error {
	query := `UPDATE requests SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(query),
		string(StatusError), message, formatTime(s.now()), id)
	if err != nil {
		return NewStorageError(s.backend, "mark_error", err)
	}
	return s.checkAffected(res, id, "mark_error")
}

func (s *SQLStore) checkAffected(res sql.Result, id, operation string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return NewStorageError(s.backend, operation, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// Query returns matching requests ordered by creation time.
func (s *SQLStore) Query(ctx context.Context, query *Query) ([]*Request, error) {
	if query == nil {
		query = &Query{}
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	where, args := buildWhereClause(query)
	order := "DESC"
	if query.ascending() {
		order = "ASC"
	}

	sqlQuery := `SELECT ` + requestColumns + ` FROM requests` + where +
		` ORDER BY created_at ` + order + `, id ASC`
	if query.Limit > 0 {
		sqlQuery += ` LIMIT ? OFFSET ?`
		args = append(args, query.Limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(sqlQuery), args...)
	if err != nil {
		return nil, NewStorageError(s.backend, "query", err)
	}
	defer rows.Close()

	results := []*Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, NewStorageError(s.backend, "scan", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.backend, "query", err)
	}
	return results, nil
}

// Count returns the number of matching requests.
func (s *SQLStore) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}
	if err := query.Validate(); err != nil {
		return 0, err
	}

	where, args := buildWhereClause(query)
	var count int64
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM requests`+where), args...).Scan(&count); err != nil {
		return 0, NewStorageError(s.backend, "count", err)
	}
	return count, nil
}

// DeleteBefore removes requests created before cutoff.
func (s *SQLStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM requests WHERE created_at < ?`), formatTime(cutoff))
	if err != nil {
		return 0, NewStorageError(s.backend, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.backend, "delete", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError(s.backend, "ping", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return NewStorageError(s.backend, "close", err)
	}
	return nil
}

// buildWhereClause builds the WHERE clause and arguments for a query.
func buildWhereClause(query *Query) (string, []any) {
	var conditions []string
	var args []any

	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(query.Status))
	}
	if query.StartTime != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, formatTime(*query.StartTime))
	}
	if query.EndTime != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, formatTime(*query.EndTime))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRequest scans a single requests row.
func scanRequest(row scanner) (*Request, error) {
	var (
		r                        Request
		status, created, updated string
		docs                     string
		result, errMsg, digest   sql.NullString
	)
	if err := row.Scan(&r.ID, &status, &created, &updated, &docs, &result, &errMsg, &digest); err != nil {
		return nil, err
	}

	var err error
	r.Status = Status(status)
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(docs), &r.Documents); err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	if result.Valid && result.String != "" {
		r.Result = &Result{}
		if err := json.Unmarshal([]byte(result.String), r.Result); err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		if r.Result.Digest == "" {
			r.Result.Digest = digest.String
		}
	}
	r.Error = errMsg.String
	return &r, nil
}

func marshalResult(result *Result) (data, digest sql.NullString, err error) {
	if result == nil {
		return data, digest, nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return data, digest, fmt.Errorf("marshal result: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nullString(result.Digest), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
