// Package store persists onboarding requests and analysis results.
//
// # Backends
//
//   - Memory: in-process map for tests and the local analyze command
//   - SQLite: embedded database through modernc.org/sqlite (driver "sqlite",
//     pure Go) or github.com/mattn/go-sqlite3 (driver "sqlite3", cgo)
//   - PostgreSQL: shared deployments through github.com/lib/pq
//
// The SQL backends share one schema. Documents and results are stored as JSON
// columns, timestamps as fixed-width UTC text, and a schema_version table
// guards against opening a database written by a newer release.
//
// # Basic Usage
//
//	s, err := store.New(ctx, cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.Create(ctx, &store.Request{ID: id, Documents: docs})
//	...
//	err = s.SaveResult(ctx, id, result)
//
// Only redacted text is ever written. PII manifests are stripped of raw
// values on the way in, so a stored request carries fingerprints and lengths
// only.
package store
