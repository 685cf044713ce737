package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/web"
)

// SessionHandler issues client tokens. The token subject is the client id
// that scopes the language store, so a renewed token keeps the same
// preferences.
type SessionHandler struct {
	secret     string
	ttl        time.Duration
	workspaces *dashboard.Manager
}

func NewSessionHandler(secret string, ttl time.Duration, workspaces *dashboard.Manager) *SessionHandler {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionHandler{secret: secret, ttl: ttl, workspaces: workspaces}
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Renewed   bool      `json:"renewed"`
}

// Create renews a still-valid token or starts a new client.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	clientID, renewed := "", false
	if tok := web.TokenFromRequest(r); tok != "" {
		if id, err := web.ParseToken(h.secret, tok); err == nil {
			clientID, renewed = id, true
		}
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}

	token, exp, err := web.IssueToken(h.secret, clientID, h.ttl)
	if err != nil {
		logger.HTTP.Error().Err(err).Msg("issue client token failed")
		web.FailErr(w, r, web.ErrInternal)
		return
	}
	web.OK(w, r, sessionResponse{Token: token, ClientID: clientID, ExpiresAt: exp, Renewed: renewed})
}

// End drops the client's in-memory workspace. Stored preferences stay, so
// the next session with the same token hydrates them again.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	clientID, err := web.ParseToken(h.secret, web.TokenFromRequest(r))
	if err != nil {
		web.FailErr(w, r, web.ErrUnauthorized)
		return
	}
	h.workspaces.Remove(clientID)
	logger.HTTP.Debug().Str("client", clientID).Msg("session ended")
	web.OK(w, r, map[string]string{"clientId": clientID})
}
