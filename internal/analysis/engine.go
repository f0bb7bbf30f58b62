package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Engine is the public entry point: it dispatches a decision to one of the
// ranking methods and packages a uniform AnalysisResults. It is safe for
// concurrent use; nothing is retained between calls.
type Engine struct {
	opts        Options
	ahp         *AHPAnalyzer
	sensitivity *SensitivityAnalyzer
	logger      *slog.Logger
}

// NewEngine creates an Engine. Zero option fields take their defaults.
func NewEngine(opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("analysis options: %w", err)
	}
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	solver := NewPrioritySolver(opts.MaxIterations, opts.Tolerance)
	return &Engine{
		opts:        opts,
		ahp:         NewAHPAnalyzer(solver, opts.ConsistencyThreshold, logger),
		sensitivity: NewSensitivityAnalyzer(opts, logger),
		logger:      logger,
	}, nil
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Analyze ranks the decision's options with method and attaches confidence,
// sensitivity and dominance data. Sensitivity is always measured by
// weighted-sum re-ranking so every method reports it in the same terms; for
// AHP the re-ranked scores are the derived option priorities.
func (e *Engine) Analyze(ctx context.Context, d *Decision, method Method) (*AnalysisResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	method, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	canon, err := e.canonical(d)
	if err != nil {
		return nil, err
	}

	results := &AnalysisResults{
		Method:        method,
		RankedOptions: []RankedOption{},
		Criteria:      d.Criteria,
		Weights:       canon.Weights,
		NonDominated:  NonDominated(canon),
		Sensitivity: SensitivityData{
			CriterionSensitivity: map[string]float64{},
			StabilityIndex:       1,
			CriticalCriteria:     []string{},
			SwitchingPoints:      []SwitchingPoint{},
		},
	}
	if len(canon.Options) == 0 {
		if method == MethodAHP && len(canon.Criteria) > 0 {
			// Criteria judgments are gated even when there is nothing to rank.
			w, cr, err := e.ahp.criteriaWeights(canon.Criteria, e.criteriaMatrix(canon))
			if err != nil {
				return nil, err
			}
			results.Weights = w
			results.ConsistencyRatio = &cr
		}
		return results, nil
	}

	switch method {
	case MethodSimple:
		results.RankedOptions = WeightedSum(canon, canon.Weights)
		results.Confidence = gapConfidence(results.RankedOptions)
	case MethodTOPSIS:
		results.RankedOptions = TOPSIS(canon, canon.Weights)
		results.Confidence = gapConfidence(results.RankedOptions)
	case MethodAHP:
		ahp, err := e.runAHP(canon)
		if err != nil {
			return nil, err
		}
		canon = withPriorities(canon, ahp)
		canon.Weights = ahp.CriteriaWeights
		results.Weights = ahp.CriteriaWeights
		results.AHP = ahp
		results.RankedOptions = ahp.Ranked()
		cr := ahp.ConsistencyRatio
		results.ConsistencyRatio = &cr
		results.Confidence = clamp(1-cr, 0, 1)
	}
	attachOptions(results.RankedOptions, d)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baseline := WeightedSum(canon, canon.Weights)
	results.Sensitivity = e.sensitivity.analyze(canon, canon.Weights, baseline)

	e.logger.Debug("analysis complete",
		"decision", d.ID,
		"method", method,
		"options", len(results.RankedOptions),
		"confidence", results.Confidence,
		"stability", results.Sensitivity.StabilityIndex,
	)
	return results, nil
}

// Rerank re-scores a previous AHP run under modified weights without
// re-deriving priorities. The decision supplies option details; sensitivity
// re-ranks the prior run's option priorities.
func (e *Engine) Rerank(ctx context.Context, d *Decision, prior *AHPResult, weights Weights) (*AnalysisResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: rerank requires the decision snapshot", ErrInsufficientData)
	}
	ranked, err := Rerank(prior, weights)
	if err != nil {
		return nil, err
	}
	canon, err := e.canonical(d)
	if err != nil {
		return nil, err
	}
	w := weights.Normalize(prior.CriterionIDs)
	canon = withPriorities(canon, prior)
	canon.Weights = w

	ahp := *prior
	ahp.CriteriaWeights = w
	ahp.FinalScores = combine(&ahp, w)

	cr := prior.ConsistencyRatio
	attachOptions(ranked, d)
	results := &AnalysisResults{
		Method:           MethodAHP,
		RankedOptions:    ranked,
		Confidence:       clamp(1-cr, 0, 1),
		Criteria:         d.Criteria,
		Weights:          w,
		ConsistencyRatio: &cr,
		NonDominated:     NonDominated(canon),
		AHP:              &ahp,
	}
	results.Sensitivity = e.sensitivity.analyze(canon, w, WeightedSum(canon, w))
	return results, nil
}

// criteriaMatrix returns the decision's pairwise criteria judgments, or a
// consistent matrix built from its weights when none were given.
func (e *Engine) criteriaMatrix(d *Decision) Matrix {
	if len(d.CriteriaMatrix) > 0 {
		return d.CriteriaMatrix
	}
	return CriteriaMatrixFromWeights(d.CriterionIDs(), d.Weights)
}

func (e *Engine) runAHP(d *Decision) (*AHPResult, error) {
	criteriaMatrix := e.criteriaMatrix(d)
	optionMatrices := make([]Matrix, len(d.Criteria))
	for i, c := range d.Criteria {
		if m, ok := d.OptionMatrices[c.ID]; ok && len(m) > 0 {
			optionMatrices[i] = m
			continue
		}
		scores := make([]float64, len(d.Options))
		for j, o := range d.Options {
			scores[j] = o.Scores[c.ID]
		}
		optionMatrices[i] = OptionMatrixFromScores(scores)
	}
	return e.ahp.Analyze(d.Criteria, d.Options, criteriaMatrix, optionMatrices)
}

// canonical validates identifiers and returns a copy with scores mapped onto
// [0,1] and weights resolved and normalized.
func (e *Engine) canonical(d *Decision) (*Decision, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil decision", ErrInvalidDecision)
	}
	if err := uniqueIDs("criterion", d.CriterionIDs()); err != nil {
		return nil, err
	}
	if err := uniqueIDs("option", d.OptionIDs()); err != nil {
		return nil, err
	}

	canon := &Decision{
		ID:             d.ID,
		Title:          d.Title,
		Criteria:       d.Criteria,
		Options:        make([]Option, len(d.Options)),
		CriteriaMatrix: d.CriteriaMatrix,
		OptionMatrices: d.OptionMatrices,
	}
	for i, o := range d.Options {
		scores := make(map[string]float64, len(o.Scores))
		for id, s := range o.Scores {
			if math.IsNaN(s) {
				continue
			}
			scores[id] = e.opts.ScoreScale.Canonical(s)
		}
		canon.Options[i] = Option{ID: o.ID, Name: o.Name, Description: o.Description, Scores: scores}
	}

	w, err := ResolveWeights(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	canon.Weights = w
	return canon, nil
}

func uniqueIDs(kind string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: %s with empty id", ErrInvalidDecision, kind)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidDecision, kind, id)
		}
		seen[id] = true
	}
	return nil
}

// withPriorities returns a copy of d whose option scores are the AHP
// per-criterion priorities, so a weighted sum over it reproduces the AHP ranking.
func withPriorities(d *Decision, ahp *AHPResult) *Decision {
	out := *d
	out.Options = make([]Option, len(d.Options))
	index := make(map[string]int, len(ahp.OptionIDs))
	for i, id := range ahp.OptionIDs {
		index[id] = i
	}
	for i, o := range d.Options {
		scores := make(map[string]float64, len(ahp.CriterionIDs))
		if j, ok := index[o.ID]; ok {
			for _, cid := range ahp.CriterionIDs {
				if p := ahp.OptionScores[cid]; j < len(p) {
					scores[cid] = p[j]
				}
			}
		}
		out.Options[i] = Option{ID: o.ID, Name: o.Name, Description: o.Description, Scores: scores}
	}
	return &out
}

// attachOptions replaces each ranked entry's option with the caller's original.
func attachOptions(ranked []RankedOption, d *Decision) {
	byID := make(map[string]Option, len(d.Options))
	for _, o := range d.Options {
		byID[o.ID] = o
	}
	for i := range ranked {
		if o, ok := byID[ranked[i].OptionID]; ok {
			ranked[i].Option = o
		}
	}
}
