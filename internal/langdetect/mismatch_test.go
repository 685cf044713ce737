package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"KrishiMitra/internal/i18n"
)

func TestCheckLanguageMismatch(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		current      i18n.Language
		wantLang     i18n.Language
		wantMismatch bool
		wantSuggest  bool
	}{
		{"same language", "What is the best fertilizer for wheat?", i18n.English, i18n.English, false, false},
		{"hindi typed in english ui", "फसल के लिए क्या खाद है", i18n.English, i18n.Hindi, true, true},
		{"tamil typed in hindi ui", "வணக்கம்", i18n.Hindi, i18n.Tamil, true, true},
		{"no evidence", "   ", i18n.Marathi, i18n.English, false, false},
		{"no evidence english ui", "", i18n.English, i18n.English, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckLanguageMismatch(tt.text, tt.current)
			assert.Equal(t, tt.wantLang, got.DetectedLanguage)
			assert.Equal(t, tt.current, got.CurrentLanguage)
			assert.Equal(t, tt.wantMismatch, got.LanguageMismatch)
			assert.Equal(t, tt.wantSuggest, got.ShouldSuggestChange)
		})
	}
}

func TestCheckLanguageMismatchFlagsFollowThresholds(t *testing.T) {
	inputs := []string{"", "hello", "नमस्ते", "What is this", "வணக்கம்", "మీరు ఎలా ఉన్నారు", "1234"}
	for _, in := range inputs {
		for _, cur := range i18n.Supported() {
			got := CheckLanguageMismatch(in, cur)
			differs := got.DetectedLanguage != cur
			assert.Equal(t, differs && got.Confidence > 70, got.ShouldSuggestChange, "%q/%s", in, cur)
			assert.Equal(t, differs && got.Confidence > 50, got.LanguageMismatch, "%q/%s", in, cur)
			if got.Confidence <= 50 {
				assert.False(t, got.LanguageMismatch)
				assert.False(t, got.ShouldSuggestChange)
			}
		}
	}
}
