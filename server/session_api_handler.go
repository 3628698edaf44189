package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-web-template/internal/utils"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/rs/zerolog/log"
)

// SessionResponse is the JSON view of a browser session. The access token never
// leaves the server.
type SessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	IsLoading     bool        `json:"isLoading"`
	User          *users.User `json:"user"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
}

// SessionAPIHandler reports the browser session state (GET /api/session)
func (s *Server) SessionAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _ := entryFrom(r.Context())
		state := entry.Store.State()

		resp := SessionResponse{
			Authenticated: state.IsAuthenticated(),
			IsLoading:     state.IsLoading,
			User:          state.User,
		}
		if !state.ExpiresAt.IsZero() {
			resp.ExpiresAt = utils.Ptr(state.ExpiresAt)
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Err(err).Msg("Failed to encode session response")
		}
	}
}
