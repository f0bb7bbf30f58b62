package analysis

import "math"

// TOPSIS ranks options by relative closeness to the ideal solution.
//
//  1. vector-normalize each criterion column: r_ij = x_ij / √(Σ_i x_ij²)
//  2. weight:   v_ij = w_j · r_ij
//  3. ideal A+ = column max, negative-ideal A- = column min
//  4. S+_i = ‖v_i − A+‖, S-_i = ‖v_i − A-‖
//  5. C_i  = S-_i / (S+_i + S-_i)
//
// Missing scores count as zero. A zero-norm column contributes nothing.
func TOPSIS(d *Decision, w Weights) []RankedOption {
	rows, cols := len(d.Options), len(d.Criteria)
	if rows == 0 {
		return []RankedOption{}
	}

	v := make([][]float64, rows)
	for i, opt := range d.Options {
		v[i] = make([]float64, cols)
		for j, c := range d.Criteria {
			v[i][j] = opt.Scores[c.ID]
		}
	}

	for j, c := range d.Criteria {
		var sq float64
		for i := range v {
			sq += v[i][j] * v[i][j]
		}
		norm := math.Sqrt(sq)
		for i := range v {
			if norm == 0 {
				v[i][j] = 0
				continue
			}
			v[i][j] = w[c.ID] * v[i][j] / norm
		}
	}

	best, worst := idealVectors(v, cols)
	ranked := make([]RankedOption, rows)
	for i, opt := range d.Options {
		dBest, dWorst := distance(v[i], best), distance(v[i], worst)
		closeness := 0.5
		if total := dBest + dWorst; total > 0 {
			closeness = dWorst / total
		}
		breakdown := make([]Contribution, cols)
		for j, c := range d.Criteria {
			breakdown[j] = Contribution{
				CriterionID: c.ID,
				Weight:      w[c.ID],
				Score:       opt.Scores[c.ID],
				Weighted:    v[i][j],
			}
		}
		ranked[i] = RankedOption{
			OptionID:  opt.ID,
			Option:    opt,
			Score:     closeness,
			Breakdown: breakdown,
		}
	}
	return assignRanks(ranked)
}

// idealVectors returns the column-wise maximum and minimum of m.
func idealVectors(m [][]float64, cols int) ([]float64, []float64) {
	best := make([]float64, cols)
	worst := make([]float64, cols)
	for j := 0; j < cols; j++ {
		best[j], worst[j] = m[0][j], m[0][j]
		for i := range m {
			best[j] = math.Max(best[j], m[i][j])
			worst[j] = math.Min(worst[j], m[i][j])
		}
	}
	return best, worst
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
