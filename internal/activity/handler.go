package activity

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/auth"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/httputil"
	"github.com/gorilla/mux"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// ListByDeal handles GET /deals/{id}/activities?before=RFC3339&limit=n
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid deal id")
		return
	}
	actorID, ok := auth.AgentID(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var before *time.Time
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid 'before' cursor")
			return
		}
		before = &t
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			httputil.RespondError(w, http.StatusBadRequest, "invalid 'limit'")
			return
		}
	}

	entries, err := h.Service.List(uint(dealID), actorID, before, limit)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}

type logEntryRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// LogEntry handles POST /deals/{id}/activities for manual touchpoints.
func (h *Handler) LogEntry(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid deal id")
		return
	}
	actorID, ok := auth.AgentID(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req logEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	entry, err := h.Service.LogManual(uint(dealID), actorID, req.Kind, req.Description)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, entry)
}
