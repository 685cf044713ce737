package langdetect

import "KrishiMitra/internal/i18n"

const (
	mismatchThreshold = 50
	suggestThreshold  = 70
)

// MismatchResult compares detected input language to the active one.
type MismatchResult struct {
	DetectedLanguage    i18n.Language `json:"detectedLanguage"`
	CurrentLanguage     i18n.Language `json:"currentLanguage"`
	LanguageMismatch    bool          `json:"languageMismatch"`
	Confidence          int           `json:"confidence"`
	ShouldSuggestChange bool          `json:"shouldSuggestChange"`
}

// CheckLanguageMismatch classifies text and flags a mismatch against
// current. LanguageMismatch is the soft flag (> 50); ShouldSuggestChange
// gates the switch prompt (> 70).
func CheckLanguageMismatch(text string, current i18n.Language) MismatchResult {
	res := Classify(text)
	differs := res.Language != current
	return MismatchResult{
		DetectedLanguage:    res.Language,
		CurrentLanguage:     current,
		LanguageMismatch:    differs && res.Confidence > mismatchThreshold,
		Confidence:          res.Confidence,
		ShouldSuggestChange: differs && res.Confidence > suggestThreshold,
	}
}
