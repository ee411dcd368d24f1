package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// Run kinds recorded in the diag_runs table.
const (
	RunKindDoctor       = "doctor"
	RunKindDebug        = "debug"
	RunKindCapabilities = "capabilities"
)

// RunRecord captures one diagnostic invocation.
type RunRecord struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Passed     int
	Total      int
	Issues     []string
}

// NewRunRecord starts a run record for the given kind with a fresh ID.
func NewRunRecord(kind string) RunRecord {
	return RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
}

// RecordRun persists the run. Records with the same ID are replaced so a
// caller may write a run twice (e.g. after late issue collection).
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	if s == nil || s.db == nil {
		return pkgerrors.New("storage: store not open")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(rec.ID) == "" {
		return pkgerrors.New("storage: run record missing id")
	}
	if strings.TrimSpace(rec.Kind) == "" {
		return pkgerrors.New("storage: run record missing kind")
	}
	issues := rec.Issues
	if issues == nil {
		issues = []string{}
	}
	payload, err := json.Marshal(issues)
	if err != nil {
		return pkgerrors.Wrap(err, "storage: marshal run issues failed")
	}
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, kind, started_at, finished_at, passed, total, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind,
			started_at=excluded.started_at,
			finished_at=excluded.finished_at,
			passed=excluded.passed,
			total=excluded.total,
			issues=excluded.issues`, quoteIdent(runTableName))
	_, err = s.db.ExecContext(ctx, stmt,
		rec.ID,
		rec.Kind,
		rec.StartedAt.Unix(),
		finished.Unix(),
		rec.Passed,
		rec.Total,
		string(payload),
	)
	if err != nil {
		return pkgerrors.Wrap(err, "storage: insert run record failed")
	}
	return nil
}

// RecentRuns returns the most recent runs of the given kind, newest first.
// An empty kind returns runs of every kind.
func (s *Store) RecentRuns(ctx context.Context, kind string, limit int) ([]RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, pkgerrors.New("storage: store not open")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT id, kind, started_at, finished_at, passed, total, issues
		FROM %s`, quoteIdent(runTableName))
	args := make([]interface{}, 0, 2)
	if strings.TrimSpace(kind) != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "storage: query run records failed")
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec               RunRecord
			started, finished int64
			issuesJSON        string
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &started, &finished, &rec.Passed, &rec.Total, &issuesJSON); err != nil {
			return nil, pkgerrors.Wrap(err, "storage: scan run record failed")
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(finished, 0)
		if err := json.Unmarshal([]byte(issuesJSON), &rec.Issues); err != nil {
			return nil, pkgerrors.Wrap(err, "storage: decode run issues failed")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "storage: iterate run records failed")
	}
	return records, nil
}
