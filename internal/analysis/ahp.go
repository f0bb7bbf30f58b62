package analysis

import (
	"fmt"
	"log/slog"
	"math"
)

// minRatioWeight floors weights when building ratio matrices so zero weights stay positive.
const minRatioWeight = 1e-6

// AHPResult is the complete output of an AHP run. It is returned to the
// caller and passed back into Rerank for what-if analysis.
type AHPResult struct {
	CriterionIDs     []string             `json:"criterion_ids"`
	OptionIDs        []string             `json:"option_ids"`
	CriteriaWeights  Weights              `json:"criteria_weights"`
	OptionScores     map[string][]float64 `json:"option_scores"`
	FinalScores      map[string]float64   `json:"final_scores"`
	ConsistencyRatio float64              `json:"consistency_ratio"`
}

// AHPAnalyzer runs the Analytic Hierarchy Process. It holds no per-run state.
type AHPAnalyzer struct {
	solver    *PrioritySolver
	threshold float64
	logger    *slog.Logger
}

// NewAHPAnalyzer creates an analyzer gating criteria judgments at threshold.
func NewAHPAnalyzer(solver *PrioritySolver, threshold float64, logger *slog.Logger) *AHPAnalyzer {
	if solver == nil {
		solver = NewPrioritySolver(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AHPAnalyzer{solver: solver, threshold: threshold, logger: logger}
}

// Analyze derives criteria weights from criteriaMatrix and one priority
// vector per criterion from optionMatrices (same order as criteria).
// Only the criteria matrix is consistency-gated.
func (a *AHPAnalyzer) Analyze(criteria []Criterion, options []Option, criteriaMatrix Matrix, optionMatrices []Matrix) (*AHPResult, error) {
	if len(optionMatrices) != len(criteria) {
		return nil, matrixSizeError("got %d option matrices for %d criteria", len(optionMatrices), len(criteria))
	}
	for i, m := range optionMatrices {
		if len(m) != len(options) {
			return nil, matrixSizeError("option matrix for %q is %d×%d for %d options", criteria[i].ID, len(m), len(m), len(options))
		}
	}

	weights, cr, err := a.criteriaWeights(criteria, criteriaMatrix)
	if err != nil {
		return nil, err
	}

	result := &AHPResult{
		CriterionIDs:     make([]string, len(criteria)),
		OptionIDs:        make([]string, len(options)),
		CriteriaWeights:  make(Weights, len(criteria)),
		OptionScores:     make(map[string][]float64, len(criteria)),
		ConsistencyRatio: cr,
	}
	for i, o := range options {
		result.OptionIDs[i] = o.ID
	}
	for i, c := range criteria {
		result.CriterionIDs[i] = c.ID
		result.CriteriaWeights[c.ID] = weights[c.ID]

		priorities, optCR, err := a.solver.Derive(optionMatrices[i])
		if err != nil {
			return nil, fmt.Errorf("option matrix for %q: %w", c.ID, err)
		}
		if optCR > a.threshold {
			a.logger.Debug("option judgments inconsistent", "criterion", c.ID, "consistency_ratio", optCR)
		}
		result.OptionScores[c.ID] = priorities
	}
	result.FinalScores = combine(result, result.CriteriaWeights)
	return result, nil
}

// criteriaWeights derives criteria weights from m and rejects judgments whose
// consistency ratio exceeds the threshold.
func (a *AHPAnalyzer) criteriaWeights(criteria []Criterion, m Matrix) (Weights, float64, error) {
	if len(m) != len(criteria) {
		return nil, 0, matrixSizeError("criteria matrix is %d×%d for %d criteria", len(m), len(m), len(criteria))
	}
	priorities, cr, err := a.solver.Derive(m)
	if err != nil {
		return nil, 0, fmt.Errorf("criteria matrix: %w", err)
	}
	if cr > a.threshold {
		return nil, 0, &InconsistentJudgmentsError{Ratio: cr, Threshold: a.threshold}
	}
	w := make(Weights, len(criteria))
	for i, c := range criteria {
		w[c.ID] = priorities[i]
	}
	return w, cr, nil
}

// Rerank recomputes final scores from the cached per-criterion option
// priorities under modified weights, without re-deriving eigenvectors.
func Rerank(result *AHPResult, weights Weights) ([]RankedOption, error) {
	if result == nil || len(result.OptionScores) == 0 || len(result.CriterionIDs) == 0 {
		return nil, fmt.Errorf("%w: rerank requires a completed AHP analysis", ErrInsufficientData)
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	w := weights.Normalize(result.CriterionIDs)
	return result.rank(w), nil
}

// Ranked orders the options by the result's own final scores.
func (r *AHPResult) Ranked() []RankedOption {
	return r.rank(r.CriteriaWeights)
}

func (r *AHPResult) rank(w Weights) []RankedOption {
	ranked := make([]RankedOption, len(r.OptionIDs))
	for o, id := range r.OptionIDs {
		ro := RankedOption{
			OptionID:  id,
			Option:    Option{ID: id},
			Breakdown: make([]Contribution, 0, len(r.CriterionIDs)),
		}
		for _, cid := range r.CriterionIDs {
			scores := r.OptionScores[cid]
			if o >= len(scores) {
				continue
			}
			weighted := w[cid] * scores[o]
			ro.Score += weighted
			ro.Breakdown = append(ro.Breakdown, Contribution{
				CriterionID: cid,
				Weight:      w[cid],
				Score:       scores[o],
				Weighted:    weighted,
			})
		}
		ranked[o] = ro
	}
	return assignRanks(ranked)
}

func combine(r *AHPResult, w Weights) map[string]float64 {
	final := make(map[string]float64, len(r.OptionIDs))
	for o, id := range r.OptionIDs {
		var total float64
		for _, cid := range r.CriterionIDs {
			if scores := r.OptionScores[cid]; o < len(scores) {
				total += w[cid] * scores[o]
			}
		}
		final[id] = total
	}
	return final
}

// CriteriaMatrixFromWeights builds a fully consistent matrix m[i][j] = w_i / w_j.
func CriteriaMatrixFromWeights(ids []string, w Weights) Matrix {
	m := make(Matrix, len(ids))
	for i, a := range ids {
		m[i] = make([]float64, len(ids))
		for j, b := range ids {
			m[i][j] = math.Max(w[a], minRatioWeight) / math.Max(w[b], minRatioWeight)
		}
	}
	return m
}

// OptionMatrixFromScores converts canonical [0,1] scores into Saaty 1–9 judgments.
// A full-scale difference maps to 9 (extreme preference), equal scores to 1.
func OptionMatrixFromScores(scores []float64) Matrix {
	m := make(Matrix, len(scores))
	for i, a := range scores {
		m[i] = make([]float64, len(scores))
		for j, b := range scores {
			diff := a - b
			v := 1 + 8*math.Min(math.Abs(diff), 1)
			if diff < 0 {
				v = 1 / v
			}
			m[i][j] = v
		}
	}
	return m
}
