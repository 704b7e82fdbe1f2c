// Package storage persists index snapshots in a SQLite database under
// .coderef/. Snapshot payloads (elements plus edge facts) are stored as
// zstd-compressed JSON blobs; summary columns stay uncompressed so listing
// never touches the payload.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"coderef/internal/errors"
	"coderef/internal/logging"
	"coderef/internal/snapshot"
)

const dbFileName = "coderef.db"

// Store is a snapshot store backed by a SQLite database
type Store struct {
	conn    *sql.DB
	logger  *logging.Logger
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// SnapshotInfo is the summary row for one stored snapshot
type SnapshotInfo struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	TotalFiles    int       `json:"totalFiles"`
	TotalElements int       `json:"totalElements"`
	Languages     []string  `json:"languages"`
}

// Open opens or creates the snapshot database at <root>/.coderef/coderef.db
func Open(root string, logger *logging.Logger) (*Store, error) {
	dir := filepath.Join(root, ".coderef")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .coderef directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFileName)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000", // Wait up to 5 seconds on lock
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	s := &Store{
		conn:    conn,
		logger:  logger,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
	}

	if err := s.initializeSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection and compression contexts
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initializeSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	version        INTEGER NOT NULL,
	total_files    INTEGER NOT NULL,
	total_elements INTEGER NOT NULL,
	languages      TEXT NOT NULL,
	payload        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`
	_, err := s.conn.Exec(schema)
	return err
}

// withTx executes fn within a transaction, rolling back on error or panic
func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveSnapshot stores a snapshot document, replacing any row with the same ID
func (s *Store) SaveSnapshot(snap *snapshot.Snapshot) error {
	payload, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	compressed := s.encoder.EncodeAll(payload, nil)

	err = s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO snapshots
				(id, created_at, version, total_files, total_elements, languages, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.ID,
			snap.Timestamp.UTC().Format(time.RFC3339Nano),
			snap.Version,
			snap.Metadata.TotalFiles,
			snap.Metadata.TotalElements,
			strings.Join(snap.Metadata.Languages, ","),
			compressed,
		)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Snapshot stored", map[string]interface{}{
		"id":         snap.ID,
		"elements":   snap.Metadata.TotalElements,
		"raw_size":   len(payload),
		"compressed": len(compressed),
	})
	return nil
}

// GetSnapshot loads a snapshot by ID
func (s *Store) GetSnapshot(id string) (*snapshot.Snapshot, error) {
	var compressed []byte
	err := s.conn.QueryRow(`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.SnapshotNotFound, "snapshot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return s.decode(compressed)
}

// LatestSnapshot loads the most recently created snapshot, used as the
// drift baseline when no explicit snapshot ID is given.
func (s *Store) LatestSnapshot() (*snapshot.Snapshot, error) {
	var compressed []byte
	err := s.conn.QueryRow(
		`SELECT payload FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.BaselineMissing, "no stored snapshots")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return s.decode(compressed)
}

// ListSnapshots returns summary rows for all stored snapshots, newest first
func (s *Store) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := s.conn.Query(`
		SELECT id, created_at, total_files, total_elements, languages
		FROM snapshots ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var createdAt, languages string
		if err := rows.Scan(&info.ID, &createdAt, &info.TotalFiles, &info.TotalElements, &languages); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
		}
		if languages != "" {
			info.Languages = strings.Split(languages, ",")
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Prune deletes all but the newest keep snapshots, returning the number removed
func (s *Store) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM snapshots WHERE id NOT IN (
				SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?
			)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	if removed > 0 {
		s.logger.Info("Pruned snapshots", map[string]interface{}{
			"removed": removed,
			"kept":    keep,
		})
	}
	return int(removed), nil
}

func (s *Store) decode(compressed []byte) (*snapshot.Snapshot, error) {
	payload, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	return snapshot.Unmarshal(payload)
}
