// Package langdetect classifies free text into one of the supported UI
// languages by script, structural pattern and keyword evidence, and decides
// whether the active language should be switched.
package langdetect

import (
	"math"
	"strings"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/metrics"
)

const (
	scriptWeight  = 3
	patternWeight = 2
	keywordWeight = 1
)

// Result is one classification.
type Result struct {
	Language   i18n.Language         `json:"language"`
	Confidence int                   `json:"confidence"`
	Scores     map[i18n.Language]int `json:"scores,omitempty"`
}

// Classify scores text against every bundle and picks the winner.
// Confidence is the winner's score relative to the highest score, so it is
// 100 whenever there is any evidence at all and 0 otherwise.
func Classify(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Language: i18n.Default}
	}

	scores := make([]int, len(patterns))

	for _, c := range text {
		for i, p := range patterns {
			for _, r := range p.Ranges {
				if r.contains(c) {
					scores[i] += scriptWeight
					break
				}
			}
		}
	}

	for i, p := range patterns {
		for _, re := range p.Structural {
			if re.MatchString(text) {
				scores[i] += patternWeight
			}
		}
	}

	lower := strings.ToLower(text)
	for i, p := range patterns {
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				scores[i] += keywordWeight
			}
		}
	}

	winner := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[winner] {
			winner = i
		}
	}

	res := Result{Language: i18n.Default, Scores: make(map[i18n.Language]int, len(patterns))}
	maxScore := 0
	for i, p := range patterns {
		res.Scores[p.Code] = scores[i]
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}
	if scores[winner] > 0 {
		res.Language = patterns[winner].Code
		res.Confidence = int(math.Round(float64(scores[winner]) / float64(maxScore) * 100))
	}

	metrics.Detections.WithLabelValues(string(res.Language)).Inc()
	return res
}

// DetectInputLanguage returns the most likely language of text.
func DetectInputLanguage(text string) i18n.Language {
	return Classify(text).Language
}

// DetectionConfidence returns the confidence (0-100) of DetectInputLanguage.
func DetectionConfidence(text string) int {
	return Classify(text).Confidence
}
