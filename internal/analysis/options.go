package analysis

import (
	"fmt"
	"math"
)

// ScoreScale names the range option scores are expressed in.
type ScoreScale string

const (
	// ScaleUnit is the canonical [0,1] scale used internally.
	ScaleUnit ScoreScale = "unit"
	// ScaleSigned is [-1,1]; scores are mapped linearly onto [0,1] before analysis.
	ScaleSigned ScoreScale = "signed"
)

// Canonical clamps s into the scale and maps it onto [0,1].
func (sc ScoreScale) Canonical(s float64) float64 {
	switch sc {
	case ScaleSigned:
		return (clamp(s, -1, 1) + 1) / 2
	default:
		return clamp(s, 0, 1)
	}
}

// SwitchingSearch controls how the switching weight of a rank reversal is estimated.
type SwitchingSearch string

const (
	// SwitchingEstimate reports originalWeight × 1.1, a coarse indicator.
	SwitchingEstimate SwitchingSearch = "estimate"
	// SwitchingBisect narrows the flip between the original and perturbed weight.
	SwitchingBisect SwitchingSearch = "bisect"
)

// Options tunes the engine. Zero values are replaced by DefaultOptions.
type Options struct {
	ScoreScale           ScoreScale
	ConsistencyThreshold float64
	CriticalThreshold    float64
	PerturbationDeltas   []float64
	SwitchingSearch      SwitchingSearch
	MaxIterations        int
	Tolerance            float64
}

// DefaultOptions returns the standard thresholds and search budgets.
func DefaultOptions() Options {
	return Options{
		ScoreScale:           ScaleUnit,
		ConsistencyThreshold: 0.1,
		CriticalThreshold:    0.15,
		PerturbationDeltas:   []float64{-0.10, -0.05, 0.05, 0.10},
		SwitchingSearch:      SwitchingEstimate,
		MaxIterations:        100,
		Tolerance:            1e-10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ScoreScale == "" {
		o.ScoreScale = d.ScoreScale
	}
	if o.ConsistencyThreshold == 0 {
		o.ConsistencyThreshold = d.ConsistencyThreshold
	}
	if o.CriticalThreshold == 0 {
		o.CriticalThreshold = d.CriticalThreshold
	}
	if len(o.PerturbationDeltas) == 0 {
		o.PerturbationDeltas = d.PerturbationDeltas
	}
	if o.SwitchingSearch == "" {
		o.SwitchingSearch = d.SwitchingSearch
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.Tolerance == 0 {
		o.Tolerance = d.Tolerance
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	switch o.ScoreScale {
	case ScaleUnit, ScaleSigned:
	default:
		return fmt.Errorf("unknown score scale %q", o.ScoreScale)
	}
	switch o.SwitchingSearch {
	case SwitchingEstimate, SwitchingBisect:
	default:
		return fmt.Errorf("unknown switching search %q", o.SwitchingSearch)
	}
	if o.ConsistencyThreshold < 0 || o.CriticalThreshold < 0 {
		return fmt.Errorf("thresholds must be non-negative")
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	if o.Tolerance <= 0 || math.IsNaN(o.Tolerance) {
		return fmt.Errorf("tolerance must be positive")
	}
	for _, d := range o.PerturbationDeltas {
		if d == 0 || math.Abs(d) >= 1 {
			return fmt.Errorf("perturbation delta %f out of range (0,1)", d)
		}
	}
	return nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
