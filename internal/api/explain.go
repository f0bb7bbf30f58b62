package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

type ExplainHandler struct {
	store store.Store
}

func NewExplainHandler(s store.Store) *ExplainHandler {
	return &ExplainHandler{store: s}
}

// Explain returns the per-criterion breakdown of the latest analysis.
// GET /api/v1/decisions/{id}/explain[?method=]
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
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

	latest, err := h.store.GetLatestAnalysis(r.Context(), id, method)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no analysis for decision"})
		return
	}

	res := latest.Results
	resp := map[string]interface{}{
		"decision_id":     latest.DecisionID,
		"analysis_id":     latest.ID,
		"method":          latest.Method,
		"analyzed_at":     latest.CreatedAt,
		"confidence":      res.Confidence,
		"weights":         res.Weights,
		"stability_index": res.Sensitivity.StabilityIndex,
		"non_dominated":   res.NonDominated,
	}

	ranking := make([]map[string]interface{}, 0, len(res.RankedOptions))
	for _, ro := range res.RankedOptions {
		ranking = append(ranking, map[string]interface{}{
			"option_id": ro.OptionID,
			"name":      ro.Option.Name,
			"rank":      ro.Rank,
			"score":     ro.Score,
			"breakdown": ro.Breakdown,
		})
	}
	resp["ranking"] = ranking

	if top := res.Top(); top != nil {
		resp["top_option"] = top.OptionID
	}
	if len(res.Sensitivity.CriticalCriteria) > 0 {
		resp["critical_criteria"] = res.Sensitivity.CriticalCriteria
	}
	if len(res.Sensitivity.SwitchingPoints) > 0 {
		resp["switching_points"] = res.Sensitivity.SwitchingPoints
	}
	if res.ConsistencyRatio != nil {
		resp["consistency_ratio"] = *res.ConsistencyRatio
	}

	writeJSON(w, http.StatusOK, resp)
}
