package i18n

import (
	"os"

	"golang.org/x/text/language"
)

var (
	supportedTags = func() []language.Tag {
		tags := make([]language.Tag, 0, len(registry))
		for _, l := range registry {
			tags = append(tags, language.MustParse(string(l.code)))
		}
		return tags
	}()

	// The first tag is what the matcher falls back to.
	matcher = language.NewMatcher(supportedTags)
)

// DetectSystemLanguage detects the process language from environment
// variables, falling back to English.
func DetectSystemLanguage() Language {
	envVars := []string{
		"KRISHIMITRA_LANG", // App-specific override
		"LANG",
		"LC_ALL",
		"LC_MESSAGES",
		"LANGUAGE",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" && val != "C" && val != "POSIX" {
			return Normalize(val)
		}
	}

	return Default
}

// ParseAcceptLanguage returns the best supported match for an
// Accept-Language header value.
// Example: "mr-IN,mr;q=0.9,en;q=0.8" -> "mr"
func ParseAcceptLanguage(header string) Language {
	if header == "" {
		return Default
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}

	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return registry[idx].code
}
