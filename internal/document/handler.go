package document

import (
	"net/http"
	"strconv"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/auth"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/httputil"
	"github.com/gorilla/mux"
)

// multipart encoding overhead allowed on top of the blob ceiling
const formOverhead = 1 << 20

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// Upload handles POST /deals/{id}/documents (multipart form with a
// "file" part, optional "category" and "via_chat" fields).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
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

	// Cap the whole request at the larger ceiling; the service enforces
	// the exact per-surface limit while copying the blob.
	r.Body = http.MaxBytesReader(w, r.Body, h.Service.Limits.DealFileBytes+formOverhead)

	viaChat := r.FormValue("via_chat") == "true"
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "missing 'file' part")
		return
	}
	defer file.Close()

	doc, err := h.Service.Upload(r.Context(), uint(dealID), actorID, UploadParams{
		Name:        header.Filename,
		Category:    r.FormValue("category"),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		ViaChat:     viaChat,
	})
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListByDeal handles GET /deals/{id}/documents.
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
	docs, err := h.Service.List(uint(dealID), actorID)
	if err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}

// Delete handles DELETE /documents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	actorID, ok := auth.AgentID(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.Service.Delete(uint(docID), actorID); err != nil {
		httputil.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
