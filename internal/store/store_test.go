package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// steppedClock advances one millisecond per call so ordering is deterministic.
func steppedClock(s *SQLiteStore) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func sampleDecision(title, owner string) *DecisionRecord {
	return &DecisionRecord{
		Title: title,
		Owner: owner,
		Snapshot: analysis.Decision{
			Criteria: []analysis.Criterion{
				{ID: "cost", Name: "Cost", Importance: analysis.ImportanceHigh},
				{ID: "speed", Name: "Speed"},
			},
			Options: []analysis.Option{
				{ID: "a", Name: "Option A", Scores: map[string]float64{"cost": 0.8, "speed": 0.3}},
				{ID: "b", Name: "Option B", Scores: map[string]float64{"cost": 0.4, "speed": 0.9}},
			},
		},
	}
}

func TestDecisionStatusValues(t *testing.T) {
	statuses := []DecisionStatus{StatusDraft, StatusReady, StatusAnalyzed, StatusArchived}
	expected := []string{"draft", "ready", "analyzed", "archived"}
	for i, s := range statuses {
		assert.Equal(t, expected[i], string(s))
		assert.True(t, s.Valid())
	}
	assert.False(t, DecisionStatus("pending").Valid())
}

func TestCreateAndGetDecision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := sampleDecision("Pick a database", "mike-d")
	require.NoError(t, s.CreateDecision(ctx, d))
	require.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, StatusDraft, d.Status)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, d.ID.String(), d.Snapshot.ID)
	assert.Equal(t, "Pick a database", d.Snapshot.Title)

	got, err := s.GetDecision(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pick a database", got.Title)
	assert.Equal(t, "mike-d", got.Owner)
	assert.Equal(t, d.CreatedAt, got.CreatedAt)
	require.Len(t, got.Snapshot.Options, 2)
	assert.Equal(t, 0.9, got.Snapshot.Options[1].Scores["speed"])
	assert.Equal(t, analysis.ImportanceHigh, got.Snapshot.Criteria[0].Importance)
}

func TestGetDecisionMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetDecision(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestListDecisionsWithFilters(t *testing.T) {
	s := newTestStore(t)
	steppedClock(s)
	ctx := context.Background()

	a := sampleDecision("A", "alice")
	b := sampleDecision("B", "bob")
	c := sampleDecision("C", "alice")
	c.Status = StatusReady
	for _, d := range []*DecisionRecord{a, b, c} {
		require.NoError(t, s.CreateDecision(ctx, d))
	}

	all, err := s.ListDecisions(ctx, DecisionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].Title, "newest first")

	alice, err := s.ListDecisions(ctx, DecisionFilter{Owner: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	ready := StatusReady
	readyOnly, err := s.ListDecisions(ctx, DecisionFilter{Status: &ready})
	require.NoError(t, err)
	require.Len(t, readyOnly, 1)
	assert.Equal(t, c.ID, readyOnly[0].ID)

	page, err := s.ListDecisions(ctx, DecisionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "B", page[0].Title)
}

func TestUpdateDecision(t *testing.T) {
	s := newTestStore(t)
	steppedClock(s)
	ctx := context.Background()

	d := sampleDecision("Draft", "mike-d")
	require.NoError(t, s.CreateDecision(ctx, d))
	created := d.UpdatedAt

	d.Title = "Final"
	d.Status = StatusReady
	d.Snapshot.Weights = analysis.Weights{"cost": 0.6, "speed": 0.4}
	require.NoError(t, s.UpdateDecision(ctx, d))
	assert.True(t, d.UpdatedAt.After(created))

	got, err := s.GetDecision(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, StatusReady, got.Status)
	assert.Equal(t, 0.6, got.Snapshot.Weights["cost"])

	missing := sampleDecision("Ghost", "nobody")
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.UpdateDecision(ctx, missing), ErrNotFound)
}

func TestAnalysesLatestAndList(t *testing.T) {
	s := newTestStore(t)
	steppedClock(s)
	ctx := context.Background()

	d := sampleDecision("Analyzed", "mike-d")
	require.NoError(t, s.CreateDecision(ctx, d))

	engine, err := analysis.NewEngine(analysis.DefaultOptions(), nil)
	require.NoError(t, err)
	for _, m := range []analysis.Method{analysis.MethodSimple, analysis.MethodTOPSIS, analysis.MethodSimple} {
		res, err := engine.Analyze(ctx, &d.Snapshot, m)
		require.NoError(t, err)
		require.NoError(t, s.SaveAnalysis(ctx, NewAnalysisRecord(d.ID, res)))
	}

	all, err := s.ListAnalyses(ctx, d.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, !all[0].CreatedAt.Before(all[1].CreatedAt), "newest first")

	simple, err := s.ListAnalyses(ctx, d.ID, analysis.MethodSimple)
	require.NoError(t, err)
	assert.Len(t, simple, 2)

	latest, err := s.GetLatestAnalysis(ctx, d.ID, "")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, analysis.MethodSimple, latest.Method)
	assert.Equal(t, all[0].ID, latest.ID)

	topsis, err := s.GetLatestAnalysis(ctx, d.ID, analysis.MethodTOPSIS)
	require.NoError(t, err)
	require.NotNil(t, topsis)
	assert.Equal(t, analysis.MethodTOPSIS, topsis.Results.Method)
	assert.NotEmpty(t, topsis.TopOptionID)
	assert.Equal(t, topsis.TopOptionID, topsis.Results.RankedOptions[0].OptionID)
	assert.Equal(t, topsis.Confidence, topsis.Results.Confidence)

	none, err := s.GetLatestAnalysis(ctx, d.ID, analysis.MethodAHP)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAHPResultSurvivesStorage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := sampleDecision("AHP", "mike-d")
	require.NoError(t, s.CreateDecision(ctx, d))

	engine, err := analysis.NewEngine(analysis.DefaultOptions(), nil)
	require.NoError(t, err)
	res, err := engine.Analyze(ctx, &d.Snapshot, analysis.MethodAHP)
	require.NoError(t, err)
	require.NoError(t, s.SaveAnalysis(ctx, NewAnalysisRecord(d.ID, res)))

	got, err := s.GetLatestAnalysis(ctx, d.ID, analysis.MethodAHP)
	require.NoError(t, err)
	require.NotNil(t, got.Results.AHP)
	require.NotNil(t, got.Results.ConsistencyRatio)

	// The stored AHP result is enough to re-rank without the engine.
	ranked, err := analysis.Rerank(got.Results.AHP, analysis.Weights{"cost": 0, "speed": 1})
	require.NoError(t, err)
	assert.Equal(t, "b", ranked[0].OptionID)
}

func TestDeleteDecisionCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := sampleDecision("Doomed", "mike-d")
	require.NoError(t, s.CreateDecision(ctx, d))
	res, err := mustEngine(t).Analyze(ctx, &d.Snapshot, analysis.MethodSimple)
	require.NoError(t, err)
	require.NoError(t, s.SaveAnalysis(ctx, NewAnalysisRecord(d.ID, res)))

	require.NoError(t, s.DeleteDecision(ctx, d.ID))

	got, err := s.GetDecision(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	analyses, err := s.ListAnalyses(ctx, d.ID, "")
	require.NoError(t, err)
	assert.Empty(t, analyses)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestOpenSQLiteDefaultsToMemory(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", "")
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
}

func mustEngine(t *testing.T) *analysis.Engine {
	t.Helper()
	e, err := analysis.NewEngine(analysis.DefaultOptions(), nil)
	require.NoError(t, err)
	return e
}
