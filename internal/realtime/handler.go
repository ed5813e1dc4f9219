package realtime

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/auth"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// ParticipantChecker reports whether an agent may view a deal. Satisfied
// by the deal service.
type ParticipantChecker interface {
	IsParticipant(dealID, agentID uint) (bool, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, restrict to configured origins.
		return true
	},
}

// Handler upgrades GET /ws/deals/{id} to a websocket subscription. The
// token rides in the query string because browser websockets cannot set
// headers.
type Handler struct {
	Hub      *Hub
	Verifier *auth.Verifier
	Deals    ParticipantChecker
}

func NewHandler(hub *Hub, v *auth.Verifier, deals ParticipantChecker) *Handler {
	return &Handler{Hub: hub, Verifier: v, Deals: deals}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	claims, err := h.Verifier.ParseAndValidate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	ok, err := h.Deals.IsParticipant(uint(dealID), claims.AgentID)
	if err != nil || !ok {
		http.Error(w, "not a deal participant", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// Not r.Context(): it is cancelled once the handler returns, and the
	// hijacked connection outlives it. readPump unregisters on disconnect.
	c := &client{conn: conn, sub: h.Hub.Subscribe(context.Background(), uint(dealID))}
	go c.writePump()
	go c.readPump()
}
