package web

import (
	"context"
	"net/http"

	"KrishiMitra/internal/i18n"
)

const languageKey contextKey = "language"

// LanguageMiddleware extracts the language from request headers and stores it in context.
// Priority: X-Language header > lang query > Accept-Language header > default "en"
func LanguageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := extractLanguage(r)
		ctx := context.WithValue(r.Context(), languageKey, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractLanguage(r *http.Request) i18n.Language {
	if lang := r.Header.Get("X-Language"); lang != "" {
		return i18n.Normalize(lang)
	}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return i18n.Normalize(lang)
	}
	if acceptLang := r.Header.Get("Accept-Language"); acceptLang != "" {
		return i18n.ParseAcceptLanguage(acceptLang)
	}
	return i18n.Default
}

// GetLanguage returns the language from request context.
// Returns "en" if not set.
func GetLanguage(r *http.Request) i18n.Language {
	if lang, ok := r.Context().Value(languageKey).(i18n.Language); ok {
		return lang
	}
	return i18n.Default
}

// SetLanguage sets the language in request context.
func SetLanguage(r *http.Request, lang i18n.Language) *http.Request {
	ctx := context.WithValue(r.Context(), languageKey, i18n.Normalize(string(lang)))
	return r.WithContext(ctx)
}

// T translates a message key using the request's language.
// Convenience wrapper for i18n.TLang.
func T(r *http.Request, key string, data ...map[string]interface{}) string {
	return i18n.TLang(GetLanguage(r), key, data...)
}
