package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is the single-node backend. All access goes through one
// connection, so ":memory:" databases survive for the life of the store.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	ddl, err := schemaFor("sqlite")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func (s *SQLiteStore) CreateDecision(ctx context.Context, d *DecisionRecord) error {
	prepareDecision(d)
	snapshotJSON, err := json.Marshal(d.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	ts := s.timestamp()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (`+decisionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Title, d.Description, d.Owner, string(d.Status), string(snapshotJSON), ts, ts,
	); err != nil {
		return err
	}
	d.CreatedAt, _ = time.Parse(timeLayout, ts)
	d.UpdatedAt = d.CreatedAt
	return nil
}

func (s *SQLiteStore) GetDecision(ctx context.Context, id uuid.UUID) (*DecisionRecord, error) {
	d, err := scanSQLiteDecision(s.db.QueryRowContext(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *SQLiteStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]*DecisionRecord, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE 1=1`
	args := []interface{}{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.Owner != "" {
		query += " AND owner = ?"
		args = append(args, filter.Owner)
	}
	query += " ORDER BY updated_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, listLimit(filter.Limit), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DecisionRecord
	for rows.Next() {
		d, err := scanSQLiteDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateDecision(ctx context.Context, d *DecisionRecord) error {
	d.Snapshot.ID = d.ID.String()
	snapshotJSON, err := json.Marshal(d.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx, `
		UPDATE decisions SET
			title = ?, description = ?, owner = ?, status = ?, snapshot = ?, updated_at = ?
		WHERE id = ?`,
		d.Title, d.Description, d.Owner, string(d.Status), string(snapshotJSON), ts, d.ID.String(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	d.UpdatedAt, _ = time.Parse(timeLayout, ts)
	return nil
}

func (s *SQLiteStore) DeleteDecision(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM decisions WHERE id = ?`, id.String())
	return err
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *AnalysisRecord) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	resultsJSON, err := json.Marshal(a.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	ts := s.timestamp()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_analyses (`+analysisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.DecisionID.String(), string(a.Method), string(resultsJSON),
		a.Confidence, a.TopOptionID, ts,
	); err != nil {
		return err
	}
	a.CreatedAt, _ = time.Parse(timeLayout, ts)
	return nil
}

func (s *SQLiteStore) GetLatestAnalysis(ctx context.Context, decisionID uuid.UUID, method analysis.Method) (*AnalysisRecord, error) {
	a, err := scanSQLiteAnalysis(s.db.QueryRowContext(ctx, `
		SELECT `+analysisColumns+`
		FROM decision_analyses
		WHERE decision_id = ? AND (? = '' OR method = ?)
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, decisionID.String(), string(method), string(method)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, decisionID uuid.UUID, method analysis.Method) ([]*AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+analysisColumns+`
		FROM decision_analyses
		WHERE decision_id = ? AND (? = '' OR method = ?)
		ORDER BY created_at DESC, rowid DESC`, decisionID.String(), string(method), string(method))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AnalysisRecord
	for rows.Next() {
		a, err := scanSQLiteAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDecision(row rowScanner) (*DecisionRecord, error) {
	d := &DecisionRecord{}
	var id, status, snapshotJSON, createdAt, updatedAt string
	if err := row.Scan(
		&id, &d.Title, &d.Description, &d.Owner, &status,
		&snapshotJSON, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if d.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("decode decision id %q: %w", id, err)
	}
	d.Status = DecisionStatus(status)
	d.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	d.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	if err := json.Unmarshal([]byte(snapshotJSON), &d.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return d, nil
}

func scanSQLiteAnalysis(row rowScanner) (*AnalysisRecord, error) {
	a := &AnalysisRecord{}
	var id, decisionID, method, resultsJSON, createdAt string
	if err := row.Scan(
		&id, &decisionID, &method, &resultsJSON,
		&a.Confidence, &a.TopOptionID, &createdAt,
	); err != nil {
		return nil, err
	}
	var err error
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("decode analysis id %q: %w", id, err)
	}
	if a.DecisionID, err = uuid.Parse(decisionID); err != nil {
		return nil, fmt.Errorf("decode decision id %q: %w", decisionID, err)
	}
	a.Method = analysis.Method(method)
	a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if err := json.Unmarshal([]byte(resultsJSON), &a.Results); err != nil {
		return nil, fmt.Errorf("decode results %s: %w", id, err)
	}
	return a, nil
}
