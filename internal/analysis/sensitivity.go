package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const (
	switchingEstimateFactor = 1.1
	bisectSteps             = 30
)

var errNoChange = errors.New("perturbation leaves weight unchanged")

// SensitivityAnalyzer perturbs criterion weights and watches for rank reversals.
type SensitivityAnalyzer struct {
	deltas   []float64
	critical float64
	search   SwitchingSearch
	logger   *slog.Logger
}

// NewSensitivityAnalyzer builds an analyzer from opts (defaults fill zero fields).
func NewSensitivityAnalyzer(opts Options, logger *slog.Logger) *SensitivityAnalyzer {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &SensitivityAnalyzer{
		deltas:   opts.PerturbationDeltas,
		critical: opts.CriticalThreshold,
		search:   opts.SwitchingSearch,
		logger:   logger,
	}
}

// Analyze tests every criterion against every delta using weighted-sum
// re-ranking and compares the result with the base order.
func (s *SensitivityAnalyzer) Analyze(d *Decision, base []RankedOption) SensitivityData {
	w, err := ResolveWeights(d)
	if err != nil {
		s.logger.Debug("sensitivity skipped", "error", err)
		return SensitivityData{CriterionSensitivity: map[string]float64{}, StabilityIndex: 1}
	}
	return s.analyze(d, w, base)
}

func (s *SensitivityAnalyzer) analyze(d *Decision, w Weights, base []RankedOption) SensitivityData {
	data := SensitivityData{
		CriterionSensitivity: make(map[string]float64, len(d.Criteria)),
		CriticalCriteria:     []string{},
		SwitchingPoints:      []SwitchingPoint{},
	}
	baseOrder := rankOrder(base)
	ids := d.CriterionIDs()

	for _, id := range ids {
		data.CriterionSensitivity[id] = 0
		if len(baseOrder) < 2 {
			continue
		}
		for _, delta := range s.deltas {
			sp, flipped, err := s.trial(d, w, ids, id, delta, baseOrder)
			if err != nil {
				if !errors.Is(err, errNoChange) {
					s.logger.Debug("sensitivity trial skipped", "criterion", id, "delta", delta, "error", err)
				}
				continue
			}
			if !flipped {
				continue
			}
			data.CriterionSensitivity[id] += math.Abs(delta)
			data.SwitchingPoints = append(data.SwitchingPoints, sp)
		}
	}

	var total float64
	for _, id := range ids {
		score := data.CriterionSensitivity[id]
		total += score
		if score > s.critical {
			data.CriticalCriteria = append(data.CriticalCriteria, id)
		}
	}
	data.StabilityIndex = 1
	if len(ids) > 0 {
		data.StabilityIndex = 1 - math.Min(1, total/float64(len(ids)))
	}
	return data
}

// trial runs one perturbation and reports the switching point if the order changed.
func (s *SensitivityAnalyzer) trial(d *Decision, w Weights, ids []string, target string, delta float64, baseOrder []string) (SwitchingPoint, bool, error) {
	original := w[target]
	modified, perturbed, err := perturb(w, ids, target, delta)
	if err != nil {
		return SwitchingPoint{}, false, err
	}
	order := rankOrder(WeightedSum(d, modified))
	pos := firstDifference(baseOrder, order)
	if pos < 0 {
		return SwitchingPoint{}, false, nil
	}

	sp := SwitchingPoint{
		CriterionID:     target,
		Delta:           delta,
		CurrentWeight:   original,
		SwitchingWeight: original * switchingEstimateFactor,
		OptionA:         baseOrder[pos],
		OptionB:         order[pos],
	}
	if s.search == SwitchingBisect {
		sw, err := s.bisect(d, w, ids, target, original, perturbed, baseOrder)
		if err != nil {
			return SwitchingPoint{}, false, err
		}
		sp.SwitchingWeight = sw
	}
	return sp, true, nil
}

// bisect narrows the weight at which the order first departs from baseOrder,
// knowing it holds at lo and fails at hi.
func (s *SensitivityAnalyzer) bisect(d *Decision, w Weights, ids []string, target string, lo, hi float64, baseOrder []string) (float64, error) {
	for i := 0; i < bisectSteps; i++ {
		mid := (lo + hi) / 2
		modified, _, err := perturb(w, ids, target, mid-w[target])
		if err != nil {
			if errors.Is(err, errNoChange) {
				return hi, nil
			}
			return 0, err
		}
		if firstDifference(baseOrder, rankOrder(WeightedSum(d, modified))) >= 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// perturb moves target's weight by delta (clamped to [0,1]) and rescales the
// other weights proportionally so the vector still sums to 1. When the other
// weights sum to zero there is nothing to redistribute and they are left alone.
func perturb(w Weights, ids []string, target string, delta float64) (Weights, float64, error) {
	original := w[target]
	updated := clamp(original+delta, 0, 1)
	diff := updated - original
	if diff == 0 {
		return nil, original, errNoChange
	}

	out := w.Clone()
	out[target] = updated

	var others float64
	for _, id := range ids {
		if id != target {
			others += w[id]
		}
	}
	if others > 0 {
		for _, id := range ids {
			if id == target {
				continue
			}
			out[id] = w[id] - diff*(w[id]/others)
		}
	}
	for id, v := range out {
		if math.IsNaN(v) || v < -WeightTolerance {
			return nil, updated, fmt.Errorf("redistribution produced weight %f for %q", v, id)
		}
		if v < 0 {
			out[id] = 0
		}
	}
	return out, updated, nil
}

func firstDifference(a, b []string) int {
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			return i
		}
	}
	return -1
}
