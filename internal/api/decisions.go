package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

type DecisionsHandler struct {
	store  store.Store
	hermes hermes.Client
}

func NewDecisionsHandler(s store.Store, h hermes.Client) *DecisionsHandler {
	return &DecisionsHandler{store: s, hermes: h}
}

type DecisionRequest struct {
	Title          string                     `json:"title"`
	Description    string                     `json:"description,omitempty"`
	Owner          string                     `json:"owner,omitempty"`
	Status         store.DecisionStatus       `json:"status,omitempty"`
	Criteria       []analysis.Criterion       `json:"criteria"`
	Options        []analysis.Option          `json:"options"`
	Weights        analysis.Weights           `json:"weights,omitempty"`
	CriteriaMatrix analysis.Matrix            `json:"criteria_matrix,omitempty"`
	OptionMatrices map[string]analysis.Matrix `json:"option_matrices,omitempty"`
}

func (req *DecisionRequest) snapshot() analysis.Decision {
	return analysis.Decision{
		Title:          req.Title,
		Criteria:       req.Criteria,
		Options:        req.Options,
		Weights:        req.Weights,
		CriteriaMatrix: req.CriteriaMatrix,
		OptionMatrices: req.OptionMatrices,
	}
}

func (h *DecisionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Title == "" || len(req.Criteria) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and criteria required"})
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	if err := req.Weights.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	owner := req.Owner
	if owner == "" {
		owner = r.Header.Get(ClientIDHeader)
	}
	d := &store.DecisionRecord{
		Title:       req.Title,
		Description: req.Description,
		Owner:       owner,
		Status:      req.Status,
		Snapshot:    req.snapshot(),
	}
	if err := h.store.CreateDecision(r.Context(), d); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.hermes != nil {
		_ = h.hermes.Publish(hermes.SubjectDecisionCreated(d.ID.String()), hermes.DecisionCreatedEvent{
			DecisionID: d.ID.String(),
			Title:      d.Title,
			Owner:      d.Owner,
			Criteria:   len(d.Snapshot.Criteria),
			Options:    len(d.Snapshot.Options),
		})
	}

	writeJSON(w, http.StatusCreated, d)
}

func (h *DecisionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.DecisionFilter{Owner: q.Get("owner")}
	if s := q.Get("status"); s != "" {
		status := store.DecisionStatus(s)
		if !status.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
		return
	}

	decisions, err := h.store.ListDecisions(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if decisions == nil {
		decisions = []*store.DecisionRecord{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (h *DecisionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Update replaces the fields present in the body. Criteria, options and
// judgments are replaced wholesale when given.
func (h *DecisionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var patch struct {
		Title          *string                    `json:"title"`
		Description    *string                    `json:"description"`
		Owner          *string                    `json:"owner"`
		Status         *store.DecisionStatus      `json:"status"`
		Criteria       []analysis.Criterion       `json:"criteria"`
		Options        []analysis.Option          `json:"options"`
		Weights        analysis.Weights           `json:"weights"`
		CriteriaMatrix analysis.Matrix            `json:"criteria_matrix"`
		OptionMatrices map[string]analysis.Matrix `json:"option_matrices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title cannot be empty"})
			return
		}
		d.Title = *patch.Title
		d.Snapshot.Title = *patch.Title
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Owner != nil {
		d.Owner = *patch.Owner
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		d.Status = *patch.Status
	}
	if patch.Criteria != nil {
		d.Snapshot.Criteria = patch.Criteria
	}
	if patch.Options != nil {
		d.Snapshot.Options = patch.Options
	}
	if patch.Weights != nil {
		if err := patch.Weights.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		d.Snapshot.Weights = patch.Weights
	}
	if patch.CriteriaMatrix != nil {
		d.Snapshot.CriteriaMatrix = patch.CriteriaMatrix
	}
	if patch.OptionMatrices != nil {
		d.Snapshot.OptionMatrices = patch.OptionMatrices
	}

	if err := h.store.UpdateDecision(r.Context(), d); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.hermes != nil {
		_ = h.hermes.Publish(hermes.SubjectDecisionUpdated(d.ID.String()), hermes.DecisionUpdatedEvent{
			DecisionID: d.ID.String(),
			Status:     string(d.Status),
		})
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DecisionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteDecision(r.Context(), d.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves the {id} URL parameter, writing the error response itself
// when the decision cannot be loaded.
func (h *DecisionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.DecisionRecord, bool) {
	id, ok := decisionID(w, r)
	if !ok {
		return nil, false
	}
	d, err := h.store.GetDecision(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if d == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
		return nil, false
	}
	return d, true
}

func decisionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid decision id"})
		return uuid.Nil, false
	}
	return id, true
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
