package hermes

import "time"

type DecisionCreatedEvent struct {
	DecisionID string `json:"decision_id"`
	Title      string `json:"title"`
	Owner      string `json:"owner"`
	Criteria   int    `json:"criteria"`
	Options    int    `json:"options"`
}

type DecisionUpdatedEvent struct {
	DecisionID string `json:"decision_id"`
	Status     string `json:"status"`
}

// AnalysisCompletedEvent is published for both fresh analyses and reranks.
type AnalysisCompletedEvent struct {
	DecisionID       string    `json:"decision_id"`
	AnalysisID       string    `json:"analysis_id"`
	Method           string    `json:"method"`
	TopOptionID      string    `json:"top_option_id,omitempty"`
	Confidence       float64   `json:"confidence"`
	StabilityIndex   float64   `json:"stability_index"`
	CriticalCriteria []string  `json:"critical_criteria,omitempty"`
	ConsistencyRatio *float64  `json:"consistency_ratio,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

type AnalysisFailedEvent struct {
	DecisionID       string   `json:"decision_id"`
	Method           string   `json:"method"`
	Error            string   `json:"error"`
	ConsistencyRatio *float64 `json:"consistency_ratio,omitempty"`
}

// AnalyzeRequestEvent asks the service to analyze a stored decision.
type AnalyzeRequestEvent struct {
	DecisionID string `json:"decision_id"`
	Method     string `json:"method,omitempty"`
	Source     string `json:"source,omitempty"`
}
