package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

// CtxAgentID keys the authenticated agent id in the request context.
const CtxAgentID ctxKey = "agentID"

// Middleware validates the bearer token and stashes the agent id in the
// request context. OPTIONS passes through for CORS preflight.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		raw := strings.TrimPrefix(h, "Bearer ")
		claims, err := v.ParseAndValidate(raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), CtxAgentID, claims.AgentID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AgentID extracts the authenticated agent id from a request context.
func AgentID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(CtxAgentID).(uint)
	return id, ok
}
