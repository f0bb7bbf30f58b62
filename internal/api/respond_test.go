package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
)

func TestWriteErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"matrix size", fmt.Errorf("%w: 2x3", analysis.ErrInvalidMatrixSize), http.StatusBadRequest},
		{"unknown method", fmt.Errorf("%w: %q", analysis.ErrUnknownMethod, "electre"), http.StatusBadRequest},
		{"invalid decision", analysis.ErrInvalidDecision, http.StatusBadRequest},
		{"inconsistent", &analysis.InconsistentJudgmentsError{Ratio: 0.3, Threshold: 0.1}, http.StatusUnprocessableEntity},
		{"no ahp run", fmt.Errorf("%w: nothing to rerank", analysis.ErrInsufficientData), http.StatusConflict},
		{"missing decision", broker.ErrDecisionNotFound, http.StatusNotFound},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestWriteErrorCarriesConsistencyRatio(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, fmt.Errorf("analyze: %w", &analysis.InconsistentJudgmentsError{Ratio: 0.25, Threshold: 0.1}))

	var body struct {
		Error            string  `json:"error"`
		ConsistencyRatio float64 `json:"consistency_ratio"`
		Threshold        float64 `json:"threshold"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ConsistencyRatio != 0.25 || body.Threshold != 0.1 {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Error == "" {
		t.Error("expected error message")
	}
}
