package handlers

import (
	"errors"
	"net/http"
	"strings"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/database"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langdetect"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/web"
)

// LanguageHandler exposes a client's language store.
type LanguageHandler struct {
	workspaces *dashboard.Manager
	linguaHint bool
}

func NewLanguageHandler(workspaces *dashboard.Manager, linguaHint bool) *LanguageHandler {
	return &LanguageHandler{workspaces: workspaces, linguaHint: linguaHint}
}

type languageState struct {
	langstore.Snapshot
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}

func stateOf(s *langstore.Store) languageState {
	snap := s.Snapshot()
	return languageState{
		Snapshot:   snap,
		Name:       i18n.Name(snap.Language),
		NativeName: i18n.NativeName(snap.Language),
	}
}

// Get returns the store snapshot.
func (h *LanguageHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(h.workspaces, r)
	web.OK(w, r, stateOf(ws.Store))
}

// Set changes the active language.
func (h *LanguageHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := web.DecodeJSON(r, &req); err != nil {
		web.FailErr(w, r, web.ErrInvalidBody)
		return
	}

	ws := workspaceOf(h.workspaces, r)
	code := i18n.Language(strings.ToLower(strings.TrimSpace(req.Language)))
	if err := ws.Store.SetLanguage(code); err != nil {
		if errors.Is(err, langstore.ErrUnsupportedLanguage) {
			web.FailErr(w, r, web.ErrUnsupportedLanguage, map[string]interface{}{"Language": req.Language})
			return
		}
		web.FailErr(w, r, web.ErrInternal)
		return
	}
	web.OK(w, r, languageSwitched(ws.Store))
}

type switchedResponse struct {
	languageState
	Message string `json:"message"`
}

func languageSwitched(s *langstore.Store) switchedResponse {
	st := stateOf(s)
	return switchedResponse{
		languageState: st,
		Message:       s.T(i18n.MsgLangSwitched, map[string]interface{}{"Language": st.NativeName}),
	}
}

type textRequest struct {
	Text string `json:"text"`
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.FailErr(w, r, web.ErrInvalidBody)
		return "", false
	}
	if strings.TrimSpace(req.Text) == "" {
		web.FailErr(w, r, web.ErrTextRequired)
		return "", false
	}
	return req.Text, true
}

type detectResponse struct {
	langstore.Suggestion
	CurrentLanguage i18n.Language    `json:"currentLanguage"`
	Prompt          string           `json:"prompt,omitempty"`
	Hint            *langdetect.Hint `json:"hint,omitempty"`
}

// Detect classifies text against the active language and says whether to
// offer a switch. The prompt is written in the detected language so the
// user can read it.
func (h *LanguageHandler) Detect(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	ws := workspaceOf(h.workspaces, r)
	sug := ws.Store.DetectAndSuggestLanguage(text)

	resp := detectResponse{Suggestion: sug, CurrentLanguage: ws.Store.Language()}
	if sug.ShouldSuggest {
		resp.Prompt = i18n.TLang(sug.DetectedLanguage, i18n.MsgLangSwitchPrompt, map[string]interface{}{
			"Language": i18n.NativeName(sug.DetectedLanguage),
		})
		ws.Record(database.CategoryDetect, "detect", string(resp.CurrentLanguage)+" -> "+string(sug.DetectedLanguage), "")
	}
	if h.linguaHint {
		if hint, ok := langdetect.StatisticalHint(text); ok {
			resp.Hint = &hint
		}
	}
	web.OK(w, r, resp)
}

type autoResponse struct {
	Changed bool `json:"changed"`
	languageState
}

// Auto switches silently when the input is confidently another language.
func (h *LanguageHandler) Auto(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	ws := workspaceOf(h.workspaces, r)
	changed := ws.Store.AutoSetLanguageFromInput(text)
	web.OK(w, r, autoResponse{Changed: changed, languageState: stateOf(ws.Store)})
}

type supportedLanguage struct {
	Code       i18n.Language `json:"code"`
	Name       string        `json:"name"`
	NativeName string        `json:"nativeName"`
}

// Supported lists the selectable languages in menu order.
func (h *LanguageHandler) Supported(w http.ResponseWriter, r *http.Request) {
	codes := i18n.Supported()
	out := make([]supportedLanguage, len(codes))
	for i, c := range codes {
		out[i] = supportedLanguage{Code: c, Name: i18n.Name(c), NativeName: i18n.NativeName(c)}
	}
	web.OK(w, r, out)
}

// Translate resolves one or more keys (key=a&key=b) in the client's
// language. Unknown keys come back verbatim.
func (h *LanguageHandler) Translate(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		web.FailErr(w, r, web.ErrInvalidBody)
		return
	}
	ws := workspaceOf(h.workspaces, r)
	out := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		// unknown keys come from the client; echo them without a miss log
		if !i18n.Has(k) {
			out[k] = k
			missing = append(missing, k)
			continue
		}
		out[k] = ws.Store.T(k)
	}
	web.OK(w, r, map[string]interface{}{
		"language":     ws.Store.Language(),
		"translations": out,
		"missing":      missing,
	})
}

// ToggleTheme flips dark mode.
func (h *LanguageHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(h.workspaces, r)
	dark := ws.Store.ToggleDarkMode()
	label := i18n.MsgThemeLight
	if dark {
		label = i18n.MsgThemeDark
	}
	ws.Record(database.CategoryTheme, "manual", ws.Store.T(label), "")
	web.OK(w, r, map[string]interface{}{"isDarkMode": dark, "label": ws.Store.T(label)})
}

// Connectivity records the browser's online flag.
func (h *LanguageHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online *bool `json:"online"`
	}
	if err := web.DecodeJSON(r, &req); err != nil || req.Online == nil {
		web.FailErr(w, r, web.ErrInvalidBody)
		return
	}
	ws := workspaceOf(h.workspaces, r)
	ws.Store.SetOnline(*req.Online)
	status := i18n.MsgStatusOffline
	if *req.Online {
		status = i18n.MsgStatusOnline
	}
	web.OK(w, r, map[string]interface{}{"isOnline": *req.Online, "label": ws.Store.T(status)})
}
