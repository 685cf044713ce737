package i18n

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportedOrder(t *testing.T) {
	assert.Equal(t, []Language{English, Hindi, Marathi, Punjabi, Gujarati, Bengali, Tamil, Telugu}, Supported())
}

func TestNormalize(t *testing.T) {
	cases := map[string]Language{
		"hi":          Hindi,
		"HI":          Hindi,
		" ta ":        Tamil,
		"hi-IN":       Hindi,
		"mr_IN.UTF-8": Marathi,
		"te.UTF-8":    Telugu,
		"fr":          English,
		"":            English,
		"zz-ZZ":       English,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestIsSupportedIsExact(t *testing.T) {
	assert.True(t, IsSupported(Bengali))
	assert.False(t, IsSupported("BN"))
	assert.False(t, IsSupported("bn-IN"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Gujarati", Name(Gujarati))
	assert.Equal(t, "ગુજરાતી", NativeName(Gujarati))
	assert.Equal(t, "xx", Name("xx"))
}

func TestParseAcceptLanguage(t *testing.T) {
	cases := map[string]Language{
		"":                          English,
		"mr-IN,mr;q=0.9,en;q=0.8":   Marathi,
		"ta":                        Tamil,
		"fr-FR,fr;q=0.9":            English,
		"de;q=0.9,te;q=0.8":         Telugu,
		"bn-BD":                     Bengali,
		"not a header ;;; q=banana": English,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseAcceptLanguage(in), "header %q", in)
	}
}

func TestDetectSystemLanguage(t *testing.T) {
	for _, env := range []string{"KRISHIMITRA_LANG", "LANG", "LC_ALL", "LC_MESSAGES", "LANGUAGE"} {
		t.Setenv(env, "")
	}
	assert.Equal(t, English, DetectSystemLanguage())

	t.Setenv("LANG", "C")
	t.Setenv("LC_ALL", "pa_IN.UTF-8")
	assert.Equal(t, Punjabi, DetectSystemLanguage())

	t.Setenv("KRISHIMITRA_LANG", "gu")
	assert.Equal(t, Gujarati, DetectSystemLanguage())
}

func TestParseLanguageInput(t *testing.T) {
	assert.Equal(t, Hindi, parseLanguageInput("2", English))
	assert.Equal(t, Telugu, parseLanguageInput("8", English))
	assert.Equal(t, Tamil, parseLanguageInput("99", Tamil))
	assert.Equal(t, Bengali, parseLanguageInput("bn", English))
	assert.Equal(t, Marathi, parseLanguageInput("Marathi", English))
	assert.Equal(t, Punjabi, parseLanguageInput("ਪੰਜਾਬੀ", English))
	assert.Equal(t, Gujarati, parseLanguageInput("", Gujarati))
	assert.Equal(t, English, parseLanguageInput("klingon", English))
}

func TestSelectLanguageReadsInput(t *testing.T) {
	t.Setenv("KRISHIMITRA_LANG", "en")
	t.Cleanup(func() { SetLanguage("en") })

	var out bytes.Buffer
	got := selectLanguage(strings.NewReader("3\n"), &out, 5)
	assert.Equal(t, Marathi, got)
	assert.Equal(t, Marathi, GetLanguage())
	assert.Contains(t, out.String(), "मराठी")
}
