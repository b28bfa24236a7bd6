// Package storage persists fetch results in an append-only JSONL journal and
// keeps a rebuildable SQLite cache next to it.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gwngames/scholargraph/internal/graph"
)

// JournalFile is the name of the fetch journal inside the workspace.
const JournalFile = "journal.jsonl"

// MaxJSONLLineCapacity is the maximum size of one journal line. A line holds
// a whole expansion response, so it is generous.
const MaxJSONLLineCapacity = 64 * 1024 * 1024

// Entry is one successful fetch recorded in the journal. Entries written by
// one expansion share a BatchID and the Scope the store was pruned to once
// they had all been merged.
type Entry struct {
	BatchID   string             `json:"batch_id"`
	FetchedAt time.Time          `json:"fetched_at"`
	Scope     []graph.NodeID     `json:"scope,omitempty"`
	Roots     []graph.NodeID     `json:"roots"`
	Depth     int                `json:"depth"`
	Filters   graph.Filters      `json:"filters"`
	Result    *graph.FetchResult `json:"result"`
}

// NewBatchID returns an id grouping the entries of one expansion.
func NewBatchID() string {
	return uuid.NewString()
}

// ReadJournal reads every entry of a journal. A missing file is an empty journal.
func ReadJournal(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if e.Result == nil {
			return nil, fmt.Errorf("parsing line %d: entry has no result", lineNum)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}

// AppendJournal adds an entry to the end of the journal.
func AppendJournal(path string, e Entry) error {
	if e.Result == nil {
		return fmt.Errorf("journal entry %s has no result", e.BatchID)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening journal for append: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing journal entry: %w", err)
	}
	return nil
}

// TruncateJournal empties the journal, creating it if needed.
func TruncateJournal(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("truncating journal: %w", err)
	}
	return f.Close()
}

// Replay merges every journal entry into the store in order and returns the
// number of entries applied. When the store prunes to roots, each batch is
// merged without pruning and then pruned once to its scope, as the live
// session does.
func Replay(path string, s *graph.Store) (int, error) {
	entries, err := ReadJournal(path)
	if err != nil {
		return 0, err
	}

	for i := 0; i < len(entries); {
		j := i
		for j < len(entries) && entries[j].BatchID == entries[i].BatchID {
			j++
		}
		batch := entries[i:j]

		s.SetScope(nil)
		for _, e := range batch {
			s.Merge(*e.Result)
		}
		s.ApplyScope(batchScope(batch))
		i = j
	}
	return len(entries), nil
}

// batchScope returns the recorded scope of a batch, or the union of its
// roots for entries written without one.
func batchScope(batch []Entry) []graph.NodeID {
	if len(batch[0].Scope) > 0 {
		return batch[0].Scope
	}
	var roots []graph.NodeID
	for _, e := range batch {
		roots = append(roots, e.Roots...)
	}
	return graph.IDSet(roots)
}

// Journal appends fetch results to a journal file under one batch id.
type Journal struct {
	Path    string
	BatchID string
	Now     func() time.Time
}

// NewJournal returns a journal writer with a fresh batch id.
func NewJournal(path string) *Journal {
	return &Journal{Path: path, BatchID: NewBatchID(), Now: time.Now}
}

// Record appends one successful fetch. A missing batch id or timestamp is
// filled from the journal.
func (j *Journal) Record(e Entry) error {
	if e.BatchID == "" {
		e.BatchID = j.BatchID
	}
	if e.FetchedAt.IsZero() {
		now := time.Now
		if j.Now != nil {
			now = j.Now
		}
		e.FetchedAt = now().UTC()
	}
	return AppendJournal(j.Path, e)
}

// Reset empties the journal.
func (j *Journal) Reset() error {
	return TruncateJournal(j.Path)
}
