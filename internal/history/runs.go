package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackplan/internal/services"
)

// Status is the outcome of one analysis run.
type Status string

const (
	// StatusPlanned means the plan changes at least one track.
	StatusPlanned Status = "planned"
	// StatusNoAction means every track is kept as is.
	StatusNoAction Status = "no_action"
	// StatusFailed means probing or planning failed.
	StatusFailed Status = "failed"
)

// Run is one recorded analysis of a media file.
type Run struct {
	ID        string          `json:"id"`
	File      string          `json:"file"`
	Status    Status          `json:"status"`
	Changes   int             `json:"changes"`
	Anomalies int             `json:"anomalies"`
	Error     string          `json:"error,omitempty"`
	Plan      json.RawMessage `json:"plan,omitempty"`
	Bitrate   json.RawMessage `json:"bitrate,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

const runColumns = `id, file_path, status, changes, anomalies, error_message, plan_json, bitrate_json, created_at`

// Record inserts run, assigning an ID and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run == nil {
		return services.InvalidArgument("record run", "run")
	}
	if strings.TrimSpace(run.File) == "" {
		return services.InvalidArgument("record run", "file")
	}
	switch run.Status {
	case StatusPlanned, StatusNoAction, StatusFailed:
	default:
		return fmt.Errorf("%w: record run: unknown status %q", services.ErrValidation, run.Status)
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	err := s.exec(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.File,
		string(run.Status),
		run.Changes,
		run.Anomalies,
		nullableString(run.Error),
		nullableJSON(run.Plan),
		nullableJSON(run.Bitrate),
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Get returns the run with the given ID. A unique ID prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.InvalidArgument("get run", "id")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY created_at DESC LIMIT 2`,
		id, id+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.ID == id {
			return &run, nil
		}
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: run %s", services.ErrNotFound, id)
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("%w: run prefix %s is ambiguous", services.ErrInvalidArgument, id)
	}
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ListByFile returns the runs recorded for path, newest first.
func (s *Store) ListByFile(ctx context.Context, path string) ([]Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE file_path = ? ORDER BY created_at DESC, rowid DESC`,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs by file: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Prune deletes runs recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run       Run
			status    string
			errMsg    sql.NullString
			planJSON  sql.NullString
			rateJSON  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.File, &status, &run.Changes, &run.Anomalies, &errMsg, &planJSON, &rateJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = Status(status)
		run.Error = errMsg.String
		if planJSON.Valid {
			run.Plan = json.RawMessage(planJSON.String)
		}
		if rateJSON.Valid {
			run.Bitrate = json.RawMessage(rateJSON.String)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", createdAt, err)
		}
		run.CreatedAt = ts
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableJSON(value json.RawMessage) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}
