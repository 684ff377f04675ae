package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/gaze-attention-mcp/internal/store"
)

// ErrCorruptLedger is returned when a ledger file exists but cannot be read.
var ErrCorruptLedger = errors.New("corrupt validation ledger")

// Record holds the leave-one-out scores of one episode within one group.
// A nil score has not been computed yet.
type Record struct {
	ID           string    `json:"id"`
	Group        string    `json:"group"`
	Subject      string    `json:"subject"`
	Index        int       `json:"index"`
	Heatmap      *Score    `json:"heatmap,omitempty"`
	DirectedMask *Score    `json:"directed_mask,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Complete reports whether both scores are present.
func (r Record) Complete() bool {
	return r.Heatmap != nil && r.DirectedMask != nil
}

// Ledger persists validation records keyed by (group, subject, index).
type Ledger interface {
	// Get returns the record for an episode and whether it exists.
	Get(group, subject string, index int) (Record, bool, error)

	// Put inserts or replaces the record with the same key. A record without
	// an ID is assigned one.
	Put(r Record) error

	// Records returns the records of group ordered by subject and index.
	Records(group string) ([]Record, error)

	Close() error
}

// JSONLedger keeps all records in one JSON file that is rewritten atomically
// on every Put, so an interrupted validation resumes from the last score.
type JSONLedger struct {
	path string

	mu      sync.Mutex
	records []Record
}

type ledgerFile struct {
	Records []Record `json:"records"`
}

// OpenJSONLedger loads the ledger at path. A missing file is an empty ledger;
// an unreadable one is an error wrapping ErrCorruptLedger.
func OpenJSONLedger(path string) (*JSONLedger, error) {
	l := &JSONLedger{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptLedger, path, err)
	}
	l.records = file.Records
	return l, nil
}

// Get implements Ledger.
func (l *JSONLedger) Get(group, subject string, index int) (Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.find(group, subject, index); i >= 0 {
		return l.records[i], true, nil
	}
	return Record{}, false, nil
}

// Put implements Ledger.
func (l *JSONLedger) Put(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stamp(&r)
	if i := l.find(r.Group, r.Subject, r.Index); i >= 0 {
		r.ID = l.records[i].ID
		l.records[i] = r
	} else {
		l.records = append(l.records, r)
	}

	data, err := json.MarshalIndent(ledgerFile{Records: l.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := store.WriteFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// Records implements Ledger.
func (l *JSONLedger) Records(group string) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, r := range l.records {
		if r.Group == group {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

// Close implements Ledger. Every Put is already on disk.
func (l *JSONLedger) Close() error {
	return nil
}

func (l *JSONLedger) find(group, subject string, index int) int {
	for i, r := range l.records {
		if r.Group == group && r.Subject == subject && r.Index == index {
			return i
		}
	}
	return -1
}

func stamp(r *Record) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.UpdatedAt = time.Now().UTC()
}

func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Subject != records[j].Subject {
			return records[i].Subject < records[j].Subject
		}
		return records[i].Index < records[j].Index
	})
}
