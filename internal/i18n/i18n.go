// Package i18n provides internationalization support for KrishiMitra.
// Translation tables are embedded per language and looked up as
// [language][key], falling back to English and finally to the key itself.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/metrics"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	messages    map[Language]map[string]string // lang -> key -> message
	mu          sync.RWMutex
	currentLang = Default
	initialized = false
)

// Init loads all locale files. It is idempotent and is called lazily by
// the lookup functions, so calling it explicitly only surfaces load errors
// early.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}

	loaded := make(map[Language]map[string]string, len(registry))
	for _, lang := range Supported() {
		data, err := localeFS.ReadFile("locales/" + string(lang) + ".json")
		if err != nil {
			return fmt.Errorf("read locale %s: %w", lang, err)
		}

		var msgs map[string]string
		if err := json.Unmarshal(data, &msgs); err != nil {
			return fmt.Errorf("parse locale %s: %w", lang, err)
		}
		loaded[lang] = msgs
	}

	messages = loaded
	initialized = true
	return nil
}

func ensureInit() {
	mu.RLock()
	ok := initialized
	mu.RUnlock()
	if !ok {
		if err := Init(); err != nil {
			logger.Log.Error().Err(err).Msg("i18n: locale tables failed to load")
		}
	}
}

// SetLanguage sets the process language used by T for CLI and log output.
// Unsupported codes normalize to English.
func SetLanguage(lang string) {
	mu.Lock()
	defer mu.Unlock()
	currentLang = Normalize(lang)
}

// GetLanguage returns the process language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// T translates key using the process language.
func T(key string, data ...map[string]interface{}) string {
	return TLang(GetLanguage(), key, data...)
}

// TLang translates key for lang. A key missing from lang falls back to the
// English entry; a key missing everywhere is logged and returned verbatim so
// the UI never renders blank text.
func TLang(lang Language, key string, data ...map[string]interface{}) string {
	ensureInit()

	mu.RLock()
	msg, ok := lookup(lang, key)
	mu.RUnlock()

	if !ok {
		metrics.TranslationMisses.Inc()
		logger.Log.Warn().Str("key", key).Str("lang", string(lang)).Msg("i18n: translation key missing")
		return key
	}
	return substitute(msg, data...)
}

// Has reports whether key exists in any table.
func Has(key string) bool {
	ensureInit()
	mu.RLock()
	defer mu.RUnlock()
	for _, msgs := range messages {
		if _, ok := msgs[key]; ok {
			return true
		}
	}
	return false
}

func lookup(lang Language, key string) (string, bool) {
	if msgs, ok := messages[lang]; ok {
		if msg, ok := msgs[key]; ok && msg != "" {
			return msg, true
		}
	}
	if lang != Default {
		if msg, ok := messages[Default][key]; ok && msg != "" {
			return msg, true
		}
	}
	return "", false
}

// substitute replaces {{.Field}} placeholders with values from data.
func substitute(msg string, data ...map[string]interface{}) string {
	if len(data) == 0 || data[0] == nil {
		return msg
	}
	for k, v := range data[0] {
		placeholder := "{{." + k + "}}"
		switch val := v.(type) {
		case string:
			msg = strings.ReplaceAll(msg, placeholder, val)
		default:
			msg = strings.ReplaceAll(msg, placeholder, fmt.Sprint(val))
		}
	}
	return msg
}
