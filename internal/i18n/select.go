package i18n

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// SelectLanguageWithTimeout prompts on stdin for a language with a countdown.
// If nothing is entered before the timeout, the system language is used.
func SelectLanguageWithTimeout(timeoutSeconds int) Language {
	return selectLanguage(os.Stdin, os.Stdout, timeoutSeconds)
}

func selectLanguage(in io.Reader, out io.Writer, timeoutSeconds int) Language {
	defaultLang := DetectSystemLanguage()
	defaultName := NativeName(defaultLang)

	inputCh := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(in)
		input, _ := reader.ReadString('\n')
		inputCh <- strings.TrimSpace(input)
	}()

	fmt.Fprintf(out, "\n%s (default: %s in %ds): ", menuLine(), defaultName, timeoutSeconds)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	remaining := timeoutSeconds
	for {
		select {
		case input := <-inputCh:
			lang := parseLanguageInput(input, defaultLang)
			SetLanguage(string(lang))
			fmt.Fprintf(out, "\n%s\n\n", T(MsgLangSelected, map[string]interface{}{"Language": NativeName(lang)}))
			return lang

		case <-ticker.C:
			remaining--
			if remaining <= 0 {
				SetLanguage(string(defaultLang))
				fmt.Fprintf(out, "\n%s\n\n", T(MsgLangAutoSelected, map[string]interface{}{"Language": defaultName}))
				return defaultLang
			}
			fmt.Fprintf(out, "\r\033[K%s (default: %s in %ds): ", menuLine(), defaultName, remaining)
		}
	}
}

// menuLine renders "1=English 2=हिन्दी ..." using native names since the
// user's language is not known yet.
func menuLine() string {
	parts := make([]string, 0, len(registry))
	for i, l := range registry {
		parts = append(parts, fmt.Sprintf("%d=%s", i+1, l.native))
	}
	return "Select language [" + strings.Join(parts, ", ") + "]"
}

// parseLanguageInput accepts a menu number, a code or an English name.
func parseLanguageInput(input string, defaultLang Language) Language {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return defaultLang
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(registry) {
			return registry[n-1].code
		}
		return defaultLang
	}
	for _, l := range registry {
		if input == string(l.code) || input == strings.ToLower(l.name) || input == strings.ToLower(l.native) {
			return l.code
		}
	}
	return defaultLang
}
