package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gwngames/scholargraph/internal/graph"
)

// PutAuthorDetail caches a detail response for an author, replacing any
// previous one.
func (d *DB) PutAuthorDetail(id graph.NodeID, data json.RawMessage, fetchedAt time.Time) error {
	if !json.Valid(data) {
		return fmt.Errorf("author detail for %s is not valid JSON", id)
	}
	_, err := d.db.Exec(`
		INSERT INTO author_details (id, data_json, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data_json = excluded.data_json, fetched_at = excluded.fetched_at
	`, string(id), string(data), fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("saving author detail %s: %w", id, err)
	}
	return nil
}

// GetAuthorDetail returns a cached detail response newer than maxAge. A zero
// maxAge accepts any age. ok is false on a miss.
func (d *DB) GetAuthorDetail(id graph.NodeID, maxAge time.Duration, now time.Time) (data json.RawMessage, ok bool, err error) {
	var raw string
	var fetchedAt int64
	err = d.db.QueryRow(`SELECT data_json, fetched_at FROM author_details WHERE id = ?`, string(id)).Scan(&raw, &fetchedAt)
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading author detail %s: %w", id, err)
	}
	if maxAge > 0 && now.Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}
	return json.RawMessage(raw), true, nil
}
