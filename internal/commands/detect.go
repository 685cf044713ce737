package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langdetect"
)

// Detect classifies the text given on the command line.
//
//	krishimitra detect [--current <code>] [--json] [--hint] <text>
func Detect(args []string) int {
	return runDetect(args, os.Stdout)
}

func runDetect(args []string, out io.Writer) int {
	current := i18n.English
	asJSON, withHint := false, false
	var words []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--current", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(out, i18n.T(i18n.MsgCliDetectUsage))
				return 2
			}
			i++
			current = i18n.Normalize(args[i])
		case "--json":
			asJSON = true
		case "--hint":
			withHint = true
		default:
			words = append(words, args[i])
		}
	}
	text := strings.TrimSpace(strings.Join(words, " "))
	if text == "" {
		fmt.Fprintln(out, i18n.T(i18n.MsgCliDetectUsage))
		return 2
	}

	res := langdetect.CheckLanguageMismatch(text, current)

	if asJSON {
		payload := struct {
			langdetect.MismatchResult
			Hint *langdetect.Hint `json:"hint,omitempty"`
		}{MismatchResult: res}
		if withHint {
			if h, ok := langdetect.StatisticalHint(text); ok {
				payload.Hint = &h
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return 1
		}
		return 0
	}

	fmt.Fprintln(out, i18n.T(i18n.MsgCliDetectResult, map[string]interface{}{
		"Language":   i18n.Name(res.DetectedLanguage),
		"Code":       res.DetectedLanguage,
		"Confidence": res.Confidence,
	}))
	if res.ShouldSuggestChange {
		fmt.Fprintln(out, i18n.T(i18n.MsgCliDetectSuggest, map[string]interface{}{
			"Current": i18n.Name(current),
			"Suggest": i18n.TLang(res.DetectedLanguage, i18n.MsgLangSwitchPrompt, map[string]interface{}{
				"Language": i18n.NativeName(res.DetectedLanguage),
			}),
		}))
	}
	if withHint {
		if h, ok := langdetect.StatisticalHint(text); ok {
			fmt.Fprintf(out, "lingua: %s (%.2f)\n", h.Language, h.Confidence)
		}
	}
	return 0
}
