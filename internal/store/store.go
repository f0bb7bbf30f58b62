package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

// ErrNotFound is returned by updates that match no row. Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("not found")

type DecisionStatus string

const (
	StatusDraft    DecisionStatus = "draft"
	StatusReady    DecisionStatus = "ready"
	StatusAnalyzed DecisionStatus = "analyzed"
	StatusArchived DecisionStatus = "archived"
)

// Valid reports whether s is a known status.
func (s DecisionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusAnalyzed, StatusArchived:
		return true
	}
	return false
}

// DecisionRecord is a persisted decision. Snapshot holds the criteria,
// options and judgments handed to the engine.
type DecisionRecord struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Owner       string            `json:"owner"`
	Status      DecisionStatus    `json:"status"`
	Snapshot    analysis.Decision `json:"snapshot"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type DecisionFilter struct {
	Status *DecisionStatus
	Owner  string
	Limit  int
	Offset int
}

// AnalysisRecord is one stored engine run. Confidence and TopOptionID are
// denormalized from Results for listing.
type AnalysisRecord struct {
	ID          uuid.UUID                `json:"id"`
	DecisionID  uuid.UUID                `json:"decision_id"`
	Method      analysis.Method          `json:"method"`
	Results     analysis.AnalysisResults `json:"results"`
	Confidence  float64                  `json:"confidence"`
	TopOptionID string                   `json:"top_option_id,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// NewAnalysisRecord wraps engine output for storage.
func NewAnalysisRecord(decisionID uuid.UUID, results *analysis.AnalysisResults) *AnalysisRecord {
	rec := &AnalysisRecord{
		DecisionID: decisionID,
		Method:     results.Method,
		Results:    *results,
		Confidence: results.Confidence,
	}
	if top := results.Top(); top != nil {
		rec.TopOptionID = top.OptionID
	}
	return rec
}

type Store interface {
	CreateDecision(ctx context.Context, d *DecisionRecord) error
	GetDecision(ctx context.Context, id uuid.UUID) (*DecisionRecord, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]*DecisionRecord, error)
	UpdateDecision(ctx context.Context, d *DecisionRecord) error
	DeleteDecision(ctx context.Context, id uuid.UUID) error

	SaveAnalysis(ctx context.Context, a *AnalysisRecord) error
	// GetLatestAnalysis returns the newest run for the decision. An empty
	// method matches any method.
	GetLatestAnalysis(ctx context.Context, decisionID uuid.UUID, method analysis.Method) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, decisionID uuid.UUID, method analysis.Method) ([]*AnalysisRecord, error)

	Close() error
}

func prepareDecision(d *DecisionRecord) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = StatusDraft
	}
	d.Snapshot.ID = d.ID.String()
	if d.Snapshot.Title == "" {
		d.Snapshot.Title = d.Title
	}
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
