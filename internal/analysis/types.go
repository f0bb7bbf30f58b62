package analysis

import (
	"fmt"
	"strings"
)

// Method selects the ranking algorithm.
type Method string

const (
	MethodSimple Method = "simple"
	MethodAHP    Method = "ahp"
	MethodTOPSIS Method = "topsis"
)

// Methods lists every supported method in dispatch order.
func Methods() []Method {
	return []Method{MethodSimple, MethodAHP, MethodTOPSIS}
}

// ParseMethod accepts a method name case-insensitively. An empty string
// resolves to MethodSimple.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodSimple:
		return MethodSimple, nil
	case MethodAHP:
		return MethodAHP, nil
	case MethodTOPSIS:
		return MethodTOPSIS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Importance is a coarse weight tier used when a criterion carries no explicit weight.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// Weight maps a tier to its raw (unnormalized) weight. Unknown tiers count as medium.
func (i Importance) Weight() float64 {
	switch i {
	case ImportanceCritical:
		return 1.0
	case ImportanceHigh:
		return 0.75
	case ImportanceLow:
		return 0.25
	default:
		return 0.5
	}
}

// Criterion is one dimension options are judged against.
type Criterion struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Unit        string     `json:"unit,omitempty" yaml:"unit,omitempty"`
	Importance  Importance `json:"importance,omitempty" yaml:"importance,omitempty"`
	Weight      *float64   `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Option is one alternative under consideration.
type Option struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Scores      map[string]float64 `json:"scores" yaml:"scores"`
}

// Matrix is a square pairwise comparison matrix. m[i][j] states how strongly
// item i is preferred over item j.
type Matrix [][]float64

// Decision is the read-only snapshot the engine analyzes.
type Decision struct {
	ID             string            `json:"id,omitempty" yaml:"id,omitempty"`
	Title          string            `json:"title,omitempty" yaml:"title,omitempty"`
	Criteria       []Criterion       `json:"criteria" yaml:"criteria"`
	Options        []Option          `json:"options" yaml:"options"`
	Weights        Weights           `json:"weights,omitempty" yaml:"weights,omitempty"`
	CriteriaMatrix Matrix            `json:"criteria_matrix,omitempty" yaml:"criteria_matrix,omitempty"`
	OptionMatrices map[string]Matrix `json:"option_matrices,omitempty" yaml:"option_matrices,omitempty"`
}

// Contribution is one criterion's share of an option's score.
type Contribution struct {
	CriterionID string  `json:"criterion_id"`
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Weighted    float64 `json:"weighted"`
}

// RankedOption is an option placed in the final ordering. Rank 1 is best.
type RankedOption struct {
	OptionID  string         `json:"option_id"`
	Option    Option         `json:"option"`
	Score     float64        `json:"score"`
	Rank      int            `json:"rank"`
	Breakdown []Contribution `json:"breakdown"`
}

// SwitchingPoint records a weight at which two options trade places.
type SwitchingPoint struct {
	CriterionID     string  `json:"criterion_id"`
	Delta           float64 `json:"delta"`
	CurrentWeight   float64 `json:"current_weight"`
	SwitchingWeight float64 `json:"switching_weight"`
	OptionA         string  `json:"option_a"`
	OptionB         string  `json:"option_b"`
}

// SensitivityData summarizes how robust a ranking is to weight changes.
type SensitivityData struct {
	CriterionSensitivity map[string]float64 `json:"criterion_sensitivity"`
	StabilityIndex       float64            `json:"stability_index"`
	CriticalCriteria     []string           `json:"critical_criteria"`
	SwitchingPoints      []SwitchingPoint   `json:"switching_points"`
}

// AnalysisResults is the uniform output of every method.
type AnalysisResults struct {
	Method           Method          `json:"method"`
	RankedOptions    []RankedOption  `json:"ranked_options"`
	Confidence       float64         `json:"confidence"`
	Criteria         []Criterion     `json:"criteria"`
	Weights          Weights         `json:"weights"`
	Sensitivity      SensitivityData `json:"sensitivity"`
	ConsistencyRatio *float64        `json:"consistency_ratio,omitempty"`
	NonDominated     []string        `json:"non_dominated"`
	AHP              *AHPResult      `json:"ahp,omitempty"`
}

// Top returns the best-ranked option, or nil for an empty ranking.
func (r *AnalysisResults) Top() *RankedOption {
	if r == nil || len(r.RankedOptions) == 0 {
		return nil
	}
	return &r.RankedOptions[0]
}
