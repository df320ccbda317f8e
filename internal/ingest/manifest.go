// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// =============================================================================
// SCHEMA
// =============================================================================

// SQLite schema for the upload manifest. The manifest records what the
// watcher has already shipped so restarts do not re-upload unchanged files.
const schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS uploads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    content_hash TEXT NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at INTEGER NOT NULL,  -- Unix timestamp
    chunks_added INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_uploads_path ON uploads(path);
`

const initMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`

// =============================================================================
// MANIFEST
// =============================================================================

// UploadRecord describes one file the watcher has uploaded.
type UploadRecord struct {
	Path        string
	ContentHash string
	Size        int64
	UploadedAt  time.Time
	ChunksAdded int
}

// Manifest tracks uploaded documents in a SQLite database.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens (creating if needed) the manifest database at path.
func OpenManifest(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	// The watcher and its callers share one connection; SQLite handles
	// its own locking.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create manifest schema: %w", err)
	}
	if _, err := db.Exec(initMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("init manifest metadata: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Close releases the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// NeedsUpload reports whether a file should be shipped: true when it has
// never been uploaded or its content hash changed since the last upload.
func (m *Manifest) NeedsUpload(path string) (bool, error) {
	hash, _, err := hashFile(path)
	if err != nil {
		return false, err
	}

	var stored string
	err = m.db.QueryRow("SELECT content_hash FROM uploads WHERE path = ?", path).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return stored != hash, nil
}

// RecordUpload marks a file as uploaded, replacing any earlier record.
func (m *Manifest) RecordUpload(path string, chunksAdded int) error {
	hash, size, err := hashFile(path)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(`
		INSERT INTO uploads (path, content_hash, size, uploaded_at, chunks_added)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			size = excluded.size,
			uploaded_at = excluded.uploaded_at,
			chunks_added = excluded.chunks_added
	`, path, hash, size, time.Now().Unix(), chunksAdded)
	return err
}

// Forget removes a file's record, so the next sighting re-uploads it.
func (m *Manifest) Forget(path string) error {
	_, err := m.db.Exec("DELETE FROM uploads WHERE path = ?", path)
	return err
}

// List returns all upload records, most recent first.
func (m *Manifest) List() ([]UploadRecord, error) {
	rows, err := m.db.Query(`
		SELECT path, content_hash, size, uploaded_at, chunks_added
		FROM uploads ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []UploadRecord
	for rows.Next() {
		var rec UploadRecord
		var ts int64
		if err := rows.Scan(&rec.Path, &rec.ContentHash, &rec.Size, &ts, &rec.ChunksAdded); err != nil {
			return nil, err
		}
		rec.UploadedAt = time.Unix(ts, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// hashFile returns the SHA-256 of a file's content and its size.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
