package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine and broker errors onto HTTP statuses. Inconsistent
// judgments carry the ratio so the caller can revise the matrix.
func writeError(w http.ResponseWriter, err error) {
	var ij *analysis.InconsistentJudgmentsError
	switch {
	case errors.As(err, &ij):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":             err.Error(),
			"consistency_ratio": ij.Ratio,
			"threshold":         ij.Threshold,
		})
	case errors.Is(err, broker.ErrDecisionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
	case errors.Is(err, analysis.ErrInsufficientData):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, analysis.ErrInvalidMatrixSize),
		errors.Is(err, analysis.ErrUnknownMethod),
		errors.Is(err, analysis.ErrInvalidDecision):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
