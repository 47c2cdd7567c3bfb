package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cardiorisk/cardiorisk/internal/model"
	"github.com/cardiorisk/cardiorisk/internal/store"
)

type handlers struct {
	svc          Service
	storeHealthy func() bool
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.storeHealthy != nil {
		body["store"] = "up"
		if !h.storeHealthy() {
			body["store"] = "down"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	var p model.PatientProfile
	if !decodeBody(w, r, &p) {
		return
	}

	report, err := h.svc.Assess(r.Context(), UserIDFromContext(r.Context()), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) overallInsight(w http.ResponseWriter, r *http.Request) {
	var diseases []model.DiseaseEstimate
	if !decodeBody(w, r, &diseases) {
		return
	}

	insight, err := h.svc.OverallInsight(r.Context(), UserIDFromContext(r.Context()), diseases)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

func (h *handlers) reports(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", store.DefaultListLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	recs, err := h.svc.History(r.Context(), UserIDFromContext(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusUnprocessableEntity, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
