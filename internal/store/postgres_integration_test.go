//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE decision_analyses CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE decisions CASCADE")
		s.Close()
	})

	return s
}

func TestPostgresCreateAndGetDecision(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	d := sampleDecision("Integration Decision", "test-owner")
	if err := s.CreateDecision(ctx, d); err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}
	if d.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.GetDecision(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDecision failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected decision, got nil")
	}
	if got.Title != "Integration Decision" {
		t.Errorf("expected title 'Integration Decision', got '%s'", got.Title)
	}
	if got.Status != StatusDraft {
		t.Errorf("expected status draft, got %s", got.Status)
	}
	if len(got.Snapshot.Options) != 2 {
		t.Errorf("expected 2 options, got %d", len(got.Snapshot.Options))
	}

	missing, err := s.GetDecision(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing decision, got (%v, %v)", missing, err)
	}
}

func TestPostgresListAndUpdate(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, d := range []*DecisionRecord{
		sampleDecision("A", "alice"),
		sampleDecision("B", "bob"),
		sampleDecision("C", "alice"),
	} {
		if err := s.CreateDecision(ctx, d); err != nil {
			t.Fatalf("CreateDecision failed: %v", err)
		}
	}

	alice, err := s.ListDecisions(ctx, DecisionFilter{Owner: "alice"})
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("expected 2 decisions for alice, got %d", len(alice))
	}

	d := alice[0]
	d.Status = StatusArchived
	if err := s.UpdateDecision(ctx, d); err != nil {
		t.Fatalf("UpdateDecision failed: %v", err)
	}
	archived := StatusArchived
	result, err := s.ListDecisions(ctx, DecisionFilter{Status: &archived})
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(result) != 1 || result[0].ID != d.ID {
		t.Errorf("expected the archived decision, got %v", result)
	}

	ghost := sampleDecision("Ghost", "nobody")
	ghost.ID = uuid.New()
	if err := s.UpdateDecision(ctx, ghost); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresAnalyses(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	d := sampleDecision("Analyzed", "test-owner")
	if err := s.CreateDecision(ctx, d); err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}

	engine := mustEngine(t)
	for _, m := range analysis.Methods() {
		res, err := engine.Analyze(ctx, &d.Snapshot, m)
		if err != nil {
			t.Fatalf("Analyze %s failed: %v", m, err)
		}
		if err := s.SaveAnalysis(ctx, NewAnalysisRecord(d.ID, res)); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
	}

	all, err := s.ListAnalyses(ctx, d.ID, "")
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(all))
	}

	latest, err := s.GetLatestAnalysis(ctx, d.ID, analysis.MethodAHP)
	if err != nil {
		t.Fatalf("GetLatestAnalysis failed: %v", err)
	}
	if latest == nil || latest.Results.AHP == nil {
		t.Fatal("expected stored AHP result")
	}

	if err := s.DeleteDecision(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDecision failed: %v", err)
	}
	all, err = s.ListAnalyses(ctx, d.ID, "")
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected analyses to cascade, got %d", len(all))
	}
}
