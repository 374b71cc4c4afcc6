package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/interfaces"
	"github.com/tabaudit/tabaudit/pkg/models"
)

var _ interfaces.SnapshotStore = (*Store)(nil)

// Store persists dataset profiles in SQLite so later runs can diff a
// candidate against a stored baseline. Profiles are stored as JSON;
// timestamps as RFC3339Nano strings for reliable round-trips.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	row_count   INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	profile     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_dataset ON snapshots (dataset, created_at);
`

// Open opens (and initializes) a snapshot store at the given SQLite
// path.
func Open(ctx context.Context, path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("opening snapshot database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("connecting to snapshot database", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("initializing snapshot schema", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a profile under the given dataset name and returns the
// new snapshot ID.
func (s *Store) Save(ctx context.Context, dataset string, profile *models.DatasetProfile) (string, error) {
	body, err := json.Marshal(profile)
	if err != nil {
		return "", apperrors.NewStorageError("encoding profile", err)
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, dataset, fingerprint, row_count, created_at, profile) VALUES (?, ?, ?, ?, ?, ?)`,
		id, dataset, profile.SchemaFingerprint, profile.RowCount, createdAt, string(body))
	if err != nil {
		return "", apperrors.NewStorageError("inserting snapshot", err)
	}

	s.logger.WithFields(logrus.Fields{
		"snapshot_id": id,
		"dataset":     dataset,
		"fingerprint": profile.SchemaFingerprint,
	}).Info("Snapshot saved")

	return id, nil
}

// Load returns the profile stored under the given snapshot ID.
func (s *Store) Load(ctx context.Context, id string) (*models.DatasetProfile, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM snapshots WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, apperrors.NewStorageError("loading snapshot", err)
	}
	return decodeProfile(body)
}

// Latest returns the most recent snapshot for a dataset.
func (s *Store) Latest(ctx context.Context, dataset string) (string, *models.DatasetProfile, error) {
	var id, body string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile FROM snapshots WHERE dataset = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		dataset).Scan(&id, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return "", nil, apperrors.NewStorageError("loading latest snapshot", err)
	}
	profile, err := decodeProfile(body)
	if err != nil {
		return "", nil, err
	}
	return id, profile, nil
}

// List returns the snapshot metadata for a dataset, newest first.
func (s *Store) List(ctx context.Context, dataset string) ([]models.SnapshotMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, fingerprint, row_count, created_at FROM snapshots WHERE dataset = ? ORDER BY created_at DESC, id DESC`,
		dataset)
	if err != nil {
		return nil, apperrors.NewStorageError("listing snapshots", err)
	}
	defer rows.Close()

	var out []models.SnapshotMeta
	for rows.Next() {
		var meta models.SnapshotMeta
		var createdAt string
		if err := rows.Scan(&meta.ID, &meta.Dataset, &meta.SchemaFingerprint, &meta.RowCount, &createdAt); err != nil {
			return nil, apperrors.NewStorageError("scanning snapshot row", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			meta.CreatedAt = ts
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterating snapshots", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep snapshots of a dataset and
// returns the number removed.
func (s *Store) Prune(ctx context.Context, dataset string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE dataset = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE dataset = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`, dataset, dataset, keep)
	if err != nil {
		return 0, apperrors.NewStorageError("pruning snapshots", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"dataset": dataset,
			"removed": removed,
			"kept":    keep,
		}).Info("Snapshots pruned")
	}
	return removed, nil
}

func decodeProfile(body string) (*models.DatasetProfile, error) {
	var profile models.DatasetProfile
	if err := json.Unmarshal([]byte(body), &profile); err != nil {
		return nil, apperrors.NewStorageError("decoding stored profile", err)
	}
	return &profile, nil
}
