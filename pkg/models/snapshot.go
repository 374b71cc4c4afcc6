package models

import "time"

// SnapshotMeta describes one persisted profile snapshot without
// loading the profile body.
type SnapshotMeta struct {
	ID                string    `json:"id"`
	Dataset           string    `json:"dataset"`
	SchemaFingerprint string    `json:"schema_fingerprint"`
	RowCount          int64     `json:"row_count"`
	CreatedAt         time.Time `json:"created_at"`
}
