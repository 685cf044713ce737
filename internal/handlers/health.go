package handlers

import (
	"net/http"
	"time"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/provider"
	"KrishiMitra/internal/version"
	"KrishiMitra/internal/web"
)

type HealthHandler struct {
	workspaces *dashboard.Manager
	prober     *provider.Prober
	started    time.Time
}

func NewHealthHandler(workspaces *dashboard.Manager, prober *provider.Prober) *HealthHandler {
	return &HealthHandler{workspaces: workspaces, prober: prober, started: time.Now()}
}

type healthResponse struct {
	Status     string                 `json:"status"` // ok | degraded
	Version    string                 `json:"version"`
	Build      string                 `json:"build"`
	Uptime     string                 `json:"uptime"`
	Workspaces int                    `json:"workspaces"`
	Providers  []provider.ProbeResult `json:"providers,omitempty"`
}

// Check reports service health. Provider reachability comes from the
// prober's cache, so frequent polling does not reach the upstreams.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Version:    version.Version,
		Build:      version.Build,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Workspaces: h.workspaces.Len(),
	}
	if h.prober != nil {
		resp.Providers = h.prober.Check(r.Context())
		for _, p := range resp.Providers {
			if !p.Reachable {
				resp.Status = "degraded"
			}
		}
	}
	web.OK(w, r, resp)
}
