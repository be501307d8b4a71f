// Package store is the engine's persistent store (spec component C6): a
// SQLite database holding the baseline fingerprint for every tracked
// file, plus one last-run fingerprint per (filename, test_name) pair
// recording the checksums a test depended on the last time it ran,
// keyed exactly as spec §4.5 describes.
//
// Modeled on the teacher's audit logger (pkg/utils/audit.go): a
// *sql.DB guarded by a mutex, directory creation on open, an idempotent
// CREATE TABLE IF NOT EXISTS schema with a supporting index, and
// batched writes inside a single transaction.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	engerrors "github.com/PaulM5406/pytest-diff/pkg/common/errors"
	"github.com/PaulM5406/pytest-diff/pkg/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS baseline_fingerprint (
	filename   TEXT PRIMARY KEY,
	file_hash  TEXT NOT NULL,
	mtime      REAL NOT NULL,
	checksums  BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS test_execution (
	test_name TEXT PRIMARY KEY,
	duration  REAL NOT NULL,
	failed    BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS last_run_fingerprint (
	filename  TEXT NOT NULL,
	test_name TEXT NOT NULL,
	file_hash TEXT NOT NULL,
	mtime     REAL NOT NULL,
	checksums BLOB NOT NULL,
	PRIMARY KEY (filename, test_name)
);

CREATE INDEX IF NOT EXISTS idx_last_run_fingerprint_filename
	ON last_run_fingerprint(filename);
`

// Store wraps a *sql.DB for the change-detection engine's schema. A
// RWMutex guards the handle itself (not individual statements — SQLite
// and the driver already serialize writes; the mutex exists so Close
// can't race a concurrent query), matching AuditLogger's shape.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open creates the database directory if needed, opens (or creates) the
// SQLite file at path, enables WAL mode for concurrent readers, and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, engerrors.Store(err, "creating store directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, engerrors.Store(err, "opening store at %s", path)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, engerrors.Store(err, "enabling WAL mode")
	}

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, engerrors.Store(err, "creating schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		return engerrors.Store(err, "closing store")
	}
	return nil
}

// packChecksums encodes a checksum list as a blob of 4-byte
// little-endian signed integers, the wire format spec §4.5 specifies
// for the checksums column.
func packChecksums(checksums []int32) []byte {
	buf := make([]byte, 4*len(checksums))
	for i, c := range checksums {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(c))
	}
	return buf
}

// unpackChecksums decodes packChecksums's output, returning an
// InvariantError if the blob length isn't a multiple of 4.
func unpackChecksums(blob []byte) ([]int32, error) {
	if len(blob)%4 != 0 {
		return nil, engerrors.Invariant("checksums blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]int32, len(blob)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

const tableBaseline = "baseline_fingerprint"

// SaveBaselineFingerprintsBatch replaces the baseline table's contents
// for the given fingerprints in a single transaction, so a crash
// mid-write never leaves a partially updated baseline.
func (s *Store) SaveBaselineFingerprintsBatch(fingerprints []types.Fingerprint) error {
	return s.saveFingerprintsBatch(tableBaseline, fingerprints)
}

func (s *Store) saveFingerprintsBatch(table string, fingerprints []types.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return engerrors.Store(err, "beginning transaction")
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (filename, file_hash, mtime, checksums)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
		   file_hash = excluded.file_hash,
		   mtime = excluded.mtime,
		   checksums = excluded.checksums`, table))
	if err != nil {
		_ = tx.Rollback()
		return engerrors.Store(err, "preparing upsert for %s", table)
	}
	defer stmt.Close()

	for _, fp := range fingerprints {
		if _, err := stmt.Exec(fp.Filename, fp.FileHash, fp.Mtime, packChecksums(fp.Checksums)); err != nil {
			_ = tx.Rollback()
			return engerrors.Store(err, "writing fingerprint for %s", fp.Filename)
		}
	}

	if err := tx.Commit(); err != nil {
		return engerrors.Store(err, "committing batch write to %s", table)
	}
	return nil
}

// GetBaselineFingerprint looks up filename's baseline fingerprint.
// ok is false if no baseline exists for the file.
func (s *Store) GetBaselineFingerprint(filename string) (fp types.Fingerprint, ok bool, err error) {
	return s.getFingerprint(tableBaseline, filename)
}

func (s *Store) getFingerprint(table, filename string) (types.Fingerprint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(fmt.Sprintf(
		`SELECT file_hash, mtime, checksums FROM %s WHERE filename = ?`, table), filename)

	var fileHash string
	var mtime float64
	var blob []byte
	if err := row.Scan(&fileHash, &mtime, &blob); err != nil {
		if err == sql.ErrNoRows {
			return types.Fingerprint{}, false, nil
		}
		return types.Fingerprint{}, false, engerrors.Store(err, "reading fingerprint for %s", filename)
	}

	checksums, err := unpackChecksums(blob)
	if err != nil {
		return types.Fingerprint{}, false, err
	}

	return types.Fingerprint{
		Filename:  filename,
		FileHash:  fileHash,
		Mtime:     mtime,
		Checksums: checksums,
	}, true, nil
}

// SaveTestExecution records a test's outcome along with one last-run
// fingerprint (checksums-only) per file it depends on, replacing any
// prior last-run rows for the same test name in a single transaction —
// spec §4.5's "upsert test row plus one last-run row per fingerprint".
func (s *Store) SaveTestExecution(exec types.TestExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return engerrors.Store(err, "beginning transaction")
	}

	if _, err := tx.Exec(
		`INSERT INTO test_execution (test_name, duration, failed) VALUES (?, ?, ?)
		 ON CONFLICT(test_name) DO UPDATE SET duration = excluded.duration, failed = excluded.failed`,
		exec.TestName, exec.Duration, exec.Failed); err != nil {
		_ = tx.Rollback()
		return engerrors.Store(err, "writing test_execution for %s", exec.TestName)
	}

	if _, err := tx.Exec(`DELETE FROM last_run_fingerprint WHERE test_name = ?`, exec.TestName); err != nil {
		_ = tx.Rollback()
		return engerrors.Store(err, "clearing prior fingerprints for %s", exec.TestName)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO last_run_fingerprint (filename, test_name, file_hash, mtime, checksums)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return engerrors.Store(err, "preparing fingerprint insert")
	}
	defer stmt.Close()

	for _, fp := range exec.Fingerprints {
		if _, err := stmt.Exec(fp.Filename, exec.TestName, fp.FileHash, fp.Mtime, packChecksums(fp.Checksums)); err != nil {
			_ = tx.Rollback()
			return engerrors.Store(err, "writing fingerprint for %s/%s", exec.TestName, fp.Filename)
		}
	}

	if err := tx.Commit(); err != nil {
		return engerrors.Store(err, "committing test execution for %s", exec.TestName)
	}
	return nil
}

// GetAffectedTests returns the name of every test whose recorded
// last-run fingerprint for filename references any of the given changed
// checksums — the tests that must re-run because a block they depend on
// no longer exists in the current file (spec §4.5).
func (s *Store) GetAffectedTests(filename string, changedChecksums []int32) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT test_name, checksums FROM last_run_fingerprint WHERE filename = ?`, filename)
	if err != nil {
		return nil, engerrors.Store(err, "querying affected tests for %s", filename)
	}
	defer rows.Close()

	changed := make(map[int32]struct{}, len(changedChecksums))
	for _, c := range changedChecksums {
		changed[c] = struct{}{}
	}

	var affected []string
	for rows.Next() {
		var testName string
		var blob []byte
		if err := rows.Scan(&testName, &blob); err != nil {
			return nil, engerrors.Store(err, "scanning affected test row")
		}
		checksums, err := unpackChecksums(blob)
		if err != nil {
			return nil, err
		}
		for _, c := range checksums {
			if _, hit := changed[c]; hit {
				affected = append(affected, testName)
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.Store(err, "iterating affected tests")
	}

	return affected, nil
}
