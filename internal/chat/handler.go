package chat

import (
	"encoding/json"
	"net/http"
	"strconv"

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

type sendMessageRequest struct {
	Body string `json:"body"`
}

// Send handles POST /deals/{id}/messages.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid deal id")
		return
	}
	senderID, ok := auth.AgentID(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := h.Service.Send(r.Context(), uint(dealID), senderID, req.Body)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, m)
}

// ListByDeal handles GET /deals/{id}/messages.
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
	msgs, err := h.Service.List(uint(dealID), actorID)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, msgs)
}

// MarkRead handles POST /deals/{id}/messages/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid deal id")
		return
	}
	readerID, ok := auth.AgentID(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.Service.MarkRead(uint(dealID), readerID); err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
