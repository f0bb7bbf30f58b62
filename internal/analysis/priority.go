package analysis

import "math"

// randomIndex holds Saaty's random consistency index by matrix size (index = n).
var randomIndex = []float64{0, 0, 0, 0.58, 0.90, 1.12, 1.24, 1.32, 1.41, 1.45, 1.49}

// MaxMatrixSize is the largest matrix the consistency table covers.
const MaxMatrixSize = 10

// PrioritySolver estimates the principal eigenvector of a pairwise matrix.
type PrioritySolver struct {
	maxIterations int
	tolerance     float64
}

// NewPrioritySolver creates a solver. Non-positive arguments fall back to 100 iterations and 1e-10.
func NewPrioritySolver(maxIterations int, tolerance float64) *PrioritySolver {
	d := DefaultOptions()
	if maxIterations <= 0 {
		maxIterations = d.MaxIterations
	}
	if tolerance <= 0 {
		tolerance = d.Tolerance
	}
	return &PrioritySolver{maxIterations: maxIterations, tolerance: tolerance}
}

// DerivePriorities uses DefaultOptions' iteration budget.
func DerivePriorities(m Matrix) ([]float64, float64, error) {
	return NewPrioritySolver(0, 0).Derive(m)
}

// Derive returns the normalized priority vector and consistency ratio of m.
//
// Power iteration starts from a uniform vector and stops once the largest
// element-wise change drops below the tolerance or the iteration budget runs
// out. An unconverged vector is returned as a best effort.
func (s *PrioritySolver) Derive(m Matrix) ([]float64, float64, error) {
	n, err := checkMatrix(m)
	if err != nil {
		return nil, 0, err
	}

	p := make([]float64, n)
	for i := range p {
		p[i] = 1.0 / float64(n)
	}
	for iter := 0; iter < s.maxIterations; iter++ {
		next := multiply(m, p)
		normalizeSum(next)
		var maxDelta float64
		for i := range next {
			maxDelta = math.Max(maxDelta, math.Abs(next[i]-p[i]))
		}
		p = next
		if maxDelta < s.tolerance {
			break
		}
	}

	return p, consistencyRatio(m, p), nil
}

// checkMatrix enforces the solver's preconditions and returns n.
func checkMatrix(m Matrix) (int, error) {
	n := len(m)
	if n == 0 {
		return 0, matrixSizeError("empty matrix")
	}
	if n > MaxMatrixSize {
		return 0, matrixSizeError("%d×%d exceeds the consistency table (max %d)", n, n, MaxMatrixSize)
	}
	for i, row := range m {
		if len(row) != n {
			return 0, matrixSizeError("row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if !(v > 0) || math.IsInf(v, 0) {
				return 0, matrixSizeError("entry [%d][%d]=%v is not a positive finite value", i, j, v)
			}
		}
	}
	return n, nil
}

// consistencyRatio computes CR = CI / RI(n) with λmax averaged over rows.
func consistencyRatio(m Matrix, p []float64) float64 {
	n := len(m)
	if n <= 2 {
		return 0
	}
	mp := multiply(m, p)
	var lambda float64
	for i := range mp {
		if p[i] > 0 {
			lambda += mp[i] / p[i]
		}
	}
	lambda /= float64(n)
	ci := (lambda - float64(n)) / float64(n-1)
	ri := randomIndex[n]
	if ri == 0 {
		return 0
	}
	return math.Max(0, ci/ri)
}

func multiply(m Matrix, v []float64) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		var sum float64
		for j, x := range row {
			sum += x * v[j]
		}
		out[i] = sum
	}
	return out
}

func normalizeSum(v []float64) {
	var total float64
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}
