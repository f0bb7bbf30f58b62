package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl, err := schemaFor("postgres")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const decisionColumns = `id, title, description, owner, status, snapshot, created_at, updated_at`

func (s *PostgresStore) CreateDecision(ctx context.Context, d *DecisionRecord) error {
	prepareDecision(d)
	snapshotJSON, err := json.Marshal(d.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO decisions (id, title, description, owner, status, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		d.ID, d.Title, d.Description, d.Owner, d.Status, snapshotJSON,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (s *PostgresStore) GetDecision(ctx context.Context, id uuid.UUID) (*DecisionRecord, error) {
	d, err := scanDecision(s.pool.QueryRow(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]*DecisionRecord, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Owner != "" {
		n++
		query += fmt.Sprintf(" AND owner = $%d", n)
		args = append(args, filter.Owner)
	}

	query += " ORDER BY updated_at DESC"

	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DecisionRecord
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDecision(ctx context.Context, d *DecisionRecord) error {
	d.Snapshot.ID = d.ID.String()
	snapshotJSON, err := json.Marshal(d.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		UPDATE decisions SET
			title = $2, description = $3, owner = $4, status = $5, snapshot = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Title, d.Description, d.Owner, d.Status, snapshotJSON,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeleteDecision(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM decisions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *AnalysisRecord) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	resultsJSON, err := json.Marshal(a.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO decision_analyses (id, decision_id, method, results, confidence, top_option_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		a.ID, a.DecisionID, string(a.Method), resultsJSON, a.Confidence, a.TopOptionID,
	).Scan(&a.CreatedAt)
}

const analysisColumns = `id, decision_id, method, results, confidence, top_option_id, created_at`

func (s *PostgresStore) GetLatestAnalysis(ctx context.Context, decisionID uuid.UUID, method analysis.Method) (*AnalysisRecord, error) {
	a, err := scanAnalysis(s.pool.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM decision_analyses
		WHERE decision_id = $1 AND ($2 = '' OR method = $2)
		ORDER BY created_at DESC
		LIMIT 1`, decisionID, string(method)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, decisionID uuid.UUID, method analysis.Method) ([]*AnalysisRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM decision_analyses
		WHERE decision_id = $1 AND ($2 = '' OR method = $2)
		ORDER BY created_at DESC`, decisionID, string(method))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AnalysisRecord
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanDecision(row pgx.Row) (*DecisionRecord, error) {
	d := &DecisionRecord{}
	var snapshotJSON []byte
	if err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Owner, &d.Status,
		&snapshotJSON, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshotJSON, &d.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", d.ID, err)
	}
	return d, nil
}

func scanAnalysis(row pgx.Row) (*AnalysisRecord, error) {
	a := &AnalysisRecord{}
	var method string
	var resultsJSON []byte
	if err := row.Scan(
		&a.ID, &a.DecisionID, &method, &resultsJSON,
		&a.Confidence, &a.TopOptionID, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.Method = analysis.Method(method)
	if err := json.Unmarshal(resultsJSON, &a.Results); err != nil {
		return nil, fmt.Errorf("decode results %s: %w", a.ID, err)
	}
	return a, nil
}
