package deal

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/auth"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/httputil"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s, Validate: validator.New()}
}

func actor(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := auth.AgentID(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
	}
	return id, ok
}

func dealID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid deal id")
		return 0, false
	}
	return uint(id), true
}

// Create handles POST /deals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req createDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Service.Create(r.Context(), actorID, CreateParams{
		LeadID:          req.LeadID,
		PropertyID:      req.PropertyID,
		ProjectID:       req.ProjectID,
		CoAgentID:       req.CoAgentID,
		DealValue:       req.DealValue,
		CommissionSplit: req.CommissionSplit,
		Notes:           req.Notes,
	})
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, toResponse(d))
}

// List handles GET /deals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(actorID)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toResponses(list))
}

// Get handles GET /deals/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	d, err := h.Service.Get(id, actorID)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toResponse(d))
}

// Update handles PUT /deals/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	var req updateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != nil {
		httputil.RespondAppError(w, apperrors.Validation("status cannot be patched here; use PATCH /deals/{id}/status"))
		return
	}

	d, err := h.Service.Update(id, actorID, UpdateParams{
		LeadID:          req.LeadID,
		DealValue:       req.DealValue,
		CommissionSplit: req.CommissionSplit,
		Notes:           req.Notes,
	})
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toResponse(d))
}

// Transition handles PATCH /deals/{id}/status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status == "" {
		httputil.RespondError(w, http.StatusBadRequest, "the 'status' field is required")
		return
	}

	d, err := h.Service.Transition(r.Context(), id, actorID, req.Status)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toResponse(d))
}

// Delete handles DELETE /deals/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := dealID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(id, actorID); err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
