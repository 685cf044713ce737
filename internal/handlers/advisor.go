package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/provider"
	"KrishiMitra/internal/web"
)

const maxChatHistory = 20

// ChatHandler forwards questions to the advisor. Before answering it runs
// language detection on the question: a confident detection switches the
// language, a weaker one is returned as a suggestion.
type ChatHandler struct {
	workspaces *dashboard.Manager
	chat       *provider.ChatClient
}

func NewChatHandler(workspaces *dashboard.Manager, chat *provider.ChatClient) *ChatHandler {
	return &ChatHandler{workspaces: workspaces, chat: chat}
}

type chatRequest struct {
	Message    string             `json:"message"`
	History    []provider.Message `json:"history,omitempty"`
	AutoSwitch *bool              `json:"autoSwitch,omitempty"`
}

type chatResponse struct {
	provider.Completion
	Switched   bool                  `json:"switched"`
	Suggestion *langstore.Suggestion `json:"suggestion,omitempty"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.FailErr(w, r, web.ErrInvalidBody)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		web.FailErr(w, r, web.ErrTextRequired)
		return
	}

	ws := workspaceOf(h.workspaces, r)
	resp := chatResponse{}
	if req.AutoSwitch == nil || *req.AutoSwitch {
		resp.Switched = ws.Store.AutoSetLanguageFromInput(req.Message)
	}
	if !resp.Switched {
		if sug := ws.Store.DetectAndSuggestLanguage(req.Message); sug.ShouldSuggest {
			resp.Suggestion = &sug
		}
	}

	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	messages := make([]provider.Message, 0, len(history)+1)
	for _, m := range history {
		if m.Role == "user" || m.Role == "assistant" {
			messages = append(messages, m)
		}
	}
	messages = append(messages, provider.Message{Role: "user", Content: req.Message})

	completion, err := h.chat.WithLanguage(ws.Store.Language()).Complete(r.Context(), messages)
	if err != nil {
		failProvider(w, r, err)
		return
	}
	resp.Completion = completion
	web.OK(w, r, resp)
}

// WeatherHandler serves current conditions in the client's language.
type WeatherHandler struct {
	workspaces  *dashboard.Manager
	weather     *provider.WeatherClient
	defaultCity string
}

func NewWeatherHandler(workspaces *dashboard.Manager, weather *provider.WeatherClient, defaultCity string) *WeatherHandler {
	return &WeatherHandler{workspaces: workspaces, weather: weather, defaultCity: defaultCity}
}

// Get accepts ?city= or ?lat=&lon=, falling back to the configured city.
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(h.workspaces, r)
	client := h.weather.WithLanguage(ws.Store.Language())

	q := r.URL.Query()
	var (
		result provider.Weather
		err    error
	)
	if latS, lonS := q.Get("lat"), q.Get("lon"); latS != "" && lonS != "" {
		lat, errLat := strconv.ParseFloat(latS, 64)
		lon, errLon := strconv.ParseFloat(lonS, 64)
		if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			web.FailErr(w, r, web.ErrInvalidBody)
			return
		}
		result, err = client.ByCoords(r.Context(), lat, lon)
	} else {
		city := strings.TrimSpace(q.Get("city"))
		if city == "" {
			city = h.defaultCity
		}
		result, err = client.ByCity(r.Context(), city)
	}
	if err != nil {
		failProvider(w, r, err)
		return
	}
	web.OK(w, r, result)
}
