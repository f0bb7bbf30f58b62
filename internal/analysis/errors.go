package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMatrixSize covers empty, non-square, mismatched or oversized matrices.
	ErrInvalidMatrixSize = errors.New("invalid matrix size")

	// ErrInconsistentJudgments is matched by *InconsistentJudgmentsError.
	ErrInconsistentJudgments = errors.New("inconsistent judgments")

	// ErrInsufficientData is returned when a rerank has no prior AHP run to work from.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidDecision covers snapshots the engine cannot index, such as duplicate IDs.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrUnknownMethod is returned for a method name other than simple, ahp or topsis.
	ErrUnknownMethod = errors.New("unknown analysis method")
)

// InconsistentJudgmentsError carries the consistency ratio that failed the gate
// so callers can prompt for re-judgment.
type InconsistentJudgmentsError struct {
	Ratio     float64
	Threshold float64
}

func (e *InconsistentJudgmentsError) Error() string {
	return fmt.Sprintf("inconsistent judgments: consistency ratio %.4f exceeds %.2f", e.Ratio, e.Threshold)
}

func (e *InconsistentJudgmentsError) Is(target error) bool {
	return target == ErrInconsistentJudgments
}

func matrixSizeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidMatrixSize}, args...)...)
}
