package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"KrishiMitra/internal/i18n"
)

var (
	linguaOnce     sync.Once
	linguaDetector lingua.LanguageDetector
)

// Restricted to the UI languages so the hint can never name something the
// store would reject.
func detector() lingua.LanguageDetector {
	linguaOnce.Do(func() {
		linguaDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.Hindi, lingua.Marathi, lingua.Punjabi,
				lingua.Gujarati, lingua.Bengali, lingua.Tamil, lingua.Telugu,
			).
			Build()
	})
	return linguaDetector
}

// Hint is a statistical second opinion. It is reported next to the
// classifier result and never drives a language switch.
type Hint struct {
	Language   i18n.Language `json:"language"`
	Confidence float64       `json:"confidence"`
}

// StatisticalHint runs the n-gram model over text. ok is false for empty
// input or when the model cannot decide.
func StatisticalHint(text string) (Hint, bool) {
	if strings.TrimSpace(text) == "" {
		return Hint{}, false
	}

	d := detector()
	lang, exists := d.DetectLanguageOf(text)
	if !exists {
		return Hint{}, false
	}

	var conf float64
	for _, cv := range d.ComputeLanguageConfidenceValues(text) {
		if cv.Language() == lang {
			conf = cv.Value()
			break
		}
	}

	return Hint{
		Language:   i18n.Normalize(lang.IsoCode639_1().String()),
		Confidence: conf,
	}, true
}
