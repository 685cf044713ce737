package i18n

import "strings"

// Language is one of the closed set of UI languages.
type Language string

const (
	English  Language = "en"
	Hindi    Language = "hi"
	Marathi  Language = "mr"
	Punjabi  Language = "pa"
	Gujarati Language = "gu"
	Bengali  Language = "bn"
	Tamil    Language = "ta"
	Telugu   Language = "te"

	Default = English
)

type languageInfo struct {
	code   Language
	name   string
	native string
}

// Registration order matters: the classifier breaks ties by it, so Hindi
// must stay ahead of Marathi.
var registry = []languageInfo{
	{English, "English", "English"},
	{Hindi, "Hindi", "हिन्दी"},
	{Marathi, "Marathi", "मराठी"},
	{Punjabi, "Punjabi", "ਪੰਜਾਬੀ"},
	{Gujarati, "Gujarati", "ગુજરાતી"},
	{Bengali, "Bengali", "বাংলা"},
	{Tamil, "Tamil", "தமிழ்"},
	{Telugu, "Telugu", "తెలుగు"},
}

// Supported returns all language codes in registration order.
func Supported() []Language {
	out := make([]Language, len(registry))
	for i, l := range registry {
		out[i] = l.code
	}
	return out
}

// IsSupported reports whether code is exactly one of the supported codes.
func IsSupported(code Language) bool {
	for _, l := range registry {
		if l.code == code {
			return true
		}
	}
	return false
}

// Normalize maps arbitrary input ("HI", "hi-IN", "mr_IN.UTF-8") onto a
// supported code, falling back to Default.
func Normalize(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.Index(code, "."); idx != -1 {
		code = code[:idx]
	}
	if idx := strings.IndexAny(code, "_-"); idx != -1 {
		code = code[:idx]
	}
	if IsSupported(Language(code)) {
		return Language(code)
	}
	return Default
}

// Name returns the English display name for code.
func Name(code Language) string {
	for _, l := range registry {
		if l.code == code {
			return l.name
		}
	}
	return string(code)
}

// NativeName returns the name of code written in its own script.
func NativeName(code Language) string {
	for _, l := range registry {
		if l.code == code {
			return l.native
		}
	}
	return string(code)
}

func (l Language) String() string { return string(l) }
