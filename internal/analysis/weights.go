package analysis

import (
	"fmt"
	"math"
)

// WeightTolerance is the allowed drift of a normalized weight vector from 1.0.
const WeightTolerance = 0.001

// Weights maps criterion IDs to non-negative importance values.
type Weights map[string]float64

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for id, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight for %q is not finite", id)
		}
		if v < 0 {
			return fmt.Errorf("negative weight for %q: %f", id, v)
		}
	}
	return nil
}

// Normalized reports whether the weights already sum to 1.0 within tolerance.
func (w Weights) Normalized() bool {
	return math.Abs(w.Sum()-1.0) <= WeightTolerance
}

// Normalize returns a copy restricted to ids whose values sum to 1.
// Missing ids get zero weight. When the total is zero every id gets an equal share.
func (w Weights) Normalize(ids []string) Weights {
	out := make(Weights, len(ids))
	if len(ids) == 0 {
		return out
	}
	var total float64
	for _, id := range ids {
		v := w[id]
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		out[id] = v
		total += v
	}
	if total == 0 {
		share := 1.0 / float64(len(ids))
		for _, id := range ids {
			out[id] = share
		}
		return out
	}
	for _, id := range ids {
		out[id] /= total
	}
	return out
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// CriterionIDs returns the IDs of the decision's criteria in input order.
func (d *Decision) CriterionIDs() []string {
	ids := make([]string, len(d.Criteria))
	for i, c := range d.Criteria {
		ids[i] = c.ID
	}
	return ids
}

// OptionIDs returns the IDs of the decision's options in input order.
func (d *Decision) OptionIDs() []string {
	ids := make([]string, len(d.Options))
	for i, o := range d.Options {
		ids[i] = o.ID
	}
	return ids
}

// ResolveWeights picks the authoritative weight source and normalizes it.
// An explicit weights map wins outright; criteria it omits weigh zero.
// Otherwise each criterion contributes its explicit weight or its importance tier.
func ResolveWeights(d *Decision) (Weights, error) {
	raw := make(Weights, len(d.Criteria))
	if len(d.Weights) > 0 {
		for _, c := range d.Criteria {
			if v, ok := d.Weights[c.ID]; ok {
				raw[c.ID] = v
			}
		}
	} else {
		for _, c := range d.Criteria {
			if c.Weight != nil {
				raw[c.ID] = *c.Weight
			} else {
				raw[c.ID] = c.Importance.Weight()
			}
		}
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return raw.Normalize(d.CriterionIDs()), nil
}
