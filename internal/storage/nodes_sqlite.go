package storage

import (
	"database/sql"
	"fmt"

	"github.com/gwngames/scholargraph/internal/graph"
)

const selectNodeFields = `id, label, image, is_root, freq_conf_rank, freq_journal_rank`

// IndexNodes records nodes that are not indexed yet. The first payload seen
// for an id wins, matching the store's merge rule. It returns how many nodes
// were new.
func (d *DB) IndexNodes(nodes []graph.Node) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM nodes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("reading node sequence: %w", err)
	}

	nodeStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO nodes (id, label, image, is_root, freq_conf_rank, freq_journal_rank, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO nodes_fts (id, label) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	added := 0
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		seq++
		res, err := nodeStmt.Exec(
			string(n.ID), n.Label, nullableStringValue(n.Image), n.IsRoot,
			nullableStringValue(n.FreqConfRank), nullableStringValue(n.FreqJournalRank), seq,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			continue
		}
		if _, err := ftsStmt.Exec(string(n.ID), n.Label); err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", n.ID, err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing nodes: %w", err)
	}
	return added, nil
}

// ReplaceNodes drops the index and rebuilds it from nodes, in order.
func (d *DB) ReplaceNodes(nodes []graph.Node) (int, error) {
	if err := d.ClearNodes(); err != nil {
		return 0, err
	}
	return d.IndexNodes(nodes)
}

// ClearNodes removes every indexed node.
func (d *DB) ClearNodes() error {
	if _, err := d.db.Exec("DELETE FROM nodes"); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM nodes_fts"); err != nil {
		return fmt.Errorf("clearing nodes_fts: %w", err)
	}
	return nil
}

// GetNode returns an indexed node by id, or nil if it is unknown.
func (d *DB) GetNode(id graph.NodeID) (*graph.Node, error) {
	row := d.db.QueryRow(`SELECT `+selectNodeFields+` FROM nodes WHERE id = ?`, string(id))
	n, err := scanNode(row)
	if isNoRows(err) {
		return nil, nil
	}
	return n, err
}

// SearchNodes returns nodes whose label or id starts with a word of the
// query, in first-seen order. An empty query lists every node.
func (d *DB) SearchNodes(query string, limit int) ([]graph.Node, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	var rows *sql.Rows
	var err error
	if fts := prepareFTSQuery(query); fts == "" {
		rows, err = d.db.Query(`SELECT `+selectNodeFields+` FROM nodes ORDER BY seq LIMIT ?`, limit)
	} else {
		rows, err = d.db.Query(`
			SELECT `+selectNodeFields+`
			FROM nodes
			WHERE id IN (SELECT id FROM nodes_fts WHERE nodes_fts MATCH ?)
			ORDER BY seq
			LIMIT ?`, fts, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// CountNodes returns the number of indexed nodes.
func (d *DB) CountNodes() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting nodes: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*graph.Node, error) {
	var id, label, image, confRank, jourRank sql.NullString
	var isRoot bool
	if err := s.Scan(&id, &label, &image, &isRoot, &confRank, &jourRank); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}
	return &graph.Node{
		ID:              graph.NodeID(id.String),
		Label:           label.String,
		Image:           image.String,
		IsRoot:          isRoot,
		FreqConfRank:    confRank.String,
		FreqJournalRank: jourRank.String,
	}, nil
}
