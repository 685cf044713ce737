package handlers

import (
	"errors"
	"net/http"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/provider"
	"KrishiMitra/internal/web"
)

// workspaceOf returns the workspace of the authenticated client.
func workspaceOf(m *dashboard.Manager, r *http.Request) *dashboard.Workspace {
	return m.Get(web.GetClientID(r))
}

type CardsHandler struct {
	workspaces *dashboard.Manager
}

func NewCardsHandler(workspaces *dashboard.Manager) *CardsHandler {
	return &CardsHandler{workspaces: workspaces}
}

// List returns the card names available to the client.
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	web.OK(w, r, workspaceOf(h.workspaces, r).CardNames())
}

type cardResponse struct {
	dashboard.CardPayload
	Refreshing bool `json:"refreshing"`
}

// Get returns /api/v1/cards/{name} in the client's active language.
func (h *CardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := web.PathTail(r, "/api/v1/cards/")
	ws := workspaceOf(h.workspaces, r)
	card, ok := ws.Card(name)
	if !ok {
		web.FailErr(w, r, web.ErrUnknownCard, map[string]interface{}{"Card": name})
		return
	}
	if r.URL.Query().Get("refresh") == "1" {
		card.Refresh()
	}

	payload, err := card.Get(r.Context(), ws.Store.Language())
	if err != nil {
		failProvider(w, r, err)
		return
	}
	web.OK(w, r, cardResponse{CardPayload: payload, Refreshing: card.Refreshing()})
}

// failProvider maps provider errors onto API errors.
func failProvider(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		web.FailErr(w, r, web.ErrWeatherNotFound)
	case errors.Is(err, provider.ErrTimeout):
		web.FailErr(w, r, web.ErrWeatherTimeout)
	default:
		logger.Provider.Warn().Err(err).Str("path", r.URL.Path).Msg("provider call failed")
		web.FailErr(w, r, web.ErrProviderUnavailable)
	}
}
