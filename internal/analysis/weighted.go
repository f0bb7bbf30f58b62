package analysis

// WeightedSum ranks options by Σ weight × score over normalized weights.
// A criterion with no weight or no score for an option contributes nothing.
func WeightedSum(d *Decision, w Weights) []RankedOption {
	ranked := make([]RankedOption, 0, len(d.Options))
	for _, opt := range d.Options {
		ro := RankedOption{
			OptionID:  opt.ID,
			Option:    opt,
			Breakdown: make([]Contribution, 0, len(d.Criteria)),
		}
		for _, c := range d.Criteria {
			weight, ok := w[c.ID]
			if !ok {
				continue
			}
			score, ok := opt.Scores[c.ID]
			if !ok {
				continue
			}
			contribution := weight * score
			ro.Score += contribution
			ro.Breakdown = append(ro.Breakdown, Contribution{
				CriterionID: c.ID,
				Weight:      weight,
				Score:       score,
				Weighted:    contribution,
			})
		}
		ranked = append(ranked, ro)
	}
	return assignRanks(ranked)
}
