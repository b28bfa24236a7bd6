package storage

import (
	"encoding/json"
	"fmt"
)

// State keys.
const (
	StateLastExpand = "last_expand"
	StateViewOpts   = "view_options"
)

// SetState stores a JSON-encoded value under key.
func (d *DB) SetState(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding state %s: %w", key, err)
	}
	_, err = d.db.Exec(`
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("saving state %s: %w", key, err)
	}
	return nil
}

// GetState decodes the value stored under key into v. ok is false when the
// key is absent, in which case v is untouched.
func (d *DB) GetState(key string, v any) (ok bool, err error) {
	var raw string
	err = d.db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&raw)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading state %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding state %s: %w", key, err)
	}
	return true, nil
}

// DeleteState removes a key.
func (d *DB) DeleteState(key string) error {
	if _, err := d.db.Exec(`DELETE FROM session_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting state %s: %w", key, err)
	}
	return nil
}
