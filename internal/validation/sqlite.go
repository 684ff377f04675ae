package validation

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS validation_scores (
	id          TEXT PRIMARY KEY,
	grp         TEXT NOT NULL,
	subject     TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	hm_corr     REAL,
	hm_p        REAL,
	dm_corr     REAL,
	dm_p        REAL,
	updated_at  TEXT NOT NULL,
	UNIQUE (grp, subject, idx)
);
`

// SQLiteLedger stores validation records in a SQLite database.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLiteLedger opens the database at path and runs migrations.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

// Get implements Ledger.
func (l *SQLiteLedger) Get(group, subject string, index int) (Record, bool, error) {
	row := l.db.QueryRow(
		`SELECT id, grp, subject, idx, hm_corr, hm_p, dm_corr, dm_p, updated_at
		 FROM validation_scores WHERE grp = ? AND subject = ? AND idx = ?`,
		group, subject, index,
	)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

// Put implements Ledger. The ID of an existing record is kept.
func (l *SQLiteLedger) Put(r Record) error {
	stamp(&r)
	hmCorr, hmP := scoreColumns(r.Heatmap)
	dmCorr, dmP := scoreColumns(r.DirectedMask)
	_, err := l.db.Exec(
		`INSERT INTO validation_scores (id, grp, subject, idx, hm_corr, hm_p, dm_corr, dm_p, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(grp, subject, idx) DO UPDATE SET
		   hm_corr = excluded.hm_corr, hm_p = excluded.hm_p,
		   dm_corr = excluded.dm_corr, dm_p = excluded.dm_p,
		   updated_at = excluded.updated_at`,
		r.ID, r.Group, r.Subject, r.Index, hmCorr, hmP, dmCorr, dmP, r.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert validation record: %w", err)
	}
	return nil
}

// Records implements Ledger.
func (l *SQLiteLedger) Records(group string) ([]Record, error) {
	rows, err := l.db.Query(
		`SELECT id, grp, subject, idx, hm_corr, hm_p, dm_corr, dm_p, updated_at
		 FROM validation_scores WHERE grp = ? ORDER BY subject, idx`,
		group,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query validation records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		r           Record
		hmCorr, hmP sql.NullFloat64
		dmCorr, dmP sql.NullFloat64
		updated     string
	)
	if err := s.Scan(&r.ID, &r.Group, &r.Subject, &r.Index, &hmCorr, &hmP, &dmCorr, &dmP, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("failed to scan validation record: %w", err)
	}
	r.Heatmap = scoreFromColumns(hmCorr, hmP)
	r.DirectedMask = scoreFromColumns(dmCorr, dmP)
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	r.UpdatedAt = t
	return r, nil
}

func scoreColumns(s *Score) (sql.NullFloat64, sql.NullFloat64) {
	if s == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: s.Correlation, Valid: true}, sql.NullFloat64{Float64: s.PValue, Valid: true}
}

func scoreFromColumns(corr, p sql.NullFloat64) *Score {
	if !corr.Valid {
		return nil
	}
	return &Score{Correlation: corr.Float64, PValue: p.Float64}
}
