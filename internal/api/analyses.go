package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

type AnalysesHandler struct {
	store  store.Store
	broker *broker.Broker
}

func NewAnalysesHandler(s store.Store, b *broker.Broker) *AnalysesHandler {
	return &AnalysesHandler{store: s, broker: b}
}

type AnalyzeRequest struct {
	Method analysis.Method `json:"method,omitempty"`
}

// Analyze runs one method against a stored decision.
// POST /api/v1/decisions/{id}/analyze
func (h *AnalysesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := decisionID(w, r)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	rec, err := h.broker.Analyze(r.Context(), id, req.Method)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Compare runs every method against a stored decision.
// POST /api/v1/decisions/{id}/compare
func (h *AnalysesHandler) Compare(w http.ResponseWriter, r *http.Request) {
	id, ok := decisionID(w, r)
	if !ok {
		return
	}
	cmp, err := h.broker.Compare(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

type RerankRequest struct {
	Weights analysis.Weights `json:"weights"`
}

// Rerank re-scores the latest AHP analysis with new criteria weights.
// POST /api/v1/decisions/{id}/rerank
func (h *AnalysesHandler) Rerank(w http.ResponseWriter, r *http.Request) {
	id, ok := decisionID(w, r)
	if !ok {
		return
	}
	var req RerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Weights) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weights required"})
		return
	}

	rec, err := h.broker.Rerank(r.Context(), id, req.Weights)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// List returns stored analyses newest first, optionally for one method.
// GET /api/v1/decisions/{id}/analyses
func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := decisionID(w, r)
	if !ok {
		return
	}
	var method analysis.Method
	if m := r.URL.Query().Get("method"); m != "" {
		parsed, err := analysis.ParseMethod(m)
		if err != nil {
			writeError(w, err)
			return
		}
		method = parsed
	}

	d, err := h.store.GetDecision(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if d == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
		return
	}

	records, err := h.store.ListAnalyses(r.Context(), id, method)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*store.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type InlineAnalyzeRequest struct {
	Method   analysis.Method   `json:"method,omitempty"`
	Decision analysis.Decision `json:"decision"`
}

// AnalyzeInline analyzes a decision carried in the body without storing it.
// POST /api/v1/analyze
func (h *AnalysesHandler) AnalyzeInline(w http.ResponseWriter, r *http.Request) {
	var req InlineAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Decision.Criteria) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "decision criteria required"})
		return
	}

	results, err := h.broker.AnalyzeInline(r.Context(), &req.Decision, req.Method)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	return false
}
