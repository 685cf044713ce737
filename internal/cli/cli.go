package cli

import (
	"fmt"
	"os"
	"strings"

	"KrishiMitra/internal/commands"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/version"

	"golang.org/x/term"
)

func Run(args []string) int {
	if err := i18n.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Language selection for interactive terminal mode (serve command only)
	if isInteractiveMode(args) && isTerminal() {
		i18n.SelectLanguageWithTimeout(5)
	} else {
		i18n.SetLanguage(string(i18n.DetectSystemLanguage()))
	}

	if len(args) < 2 {
		return commands.RunServe(nil)
	}

	switch args[1] {
	case "-h", "--help", "help":
		fmt.Println(usage())
		return 0
	case "-v", "--version", "version":
		fmt.Printf("KrishiMitra %s\n", version.String())
		return 0
	case "detect":
		return commands.Detect(args[2:])
	case "settings":
		return commands.Settings(args[2:])
	case "serve":
		return commands.RunServe(args[2:])
	default:
		if !strings.HasPrefix(args[1], "-") {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.MsgCliUnknownCommand, map[string]interface{}{"Command": args[1]}))
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, usage())
			return 2
		}
		// flags go to serve
		return commands.RunServe(args[1:])
	}
}

func usage() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, i18n.T(i18n.MsgCliAppName))
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, i18n.T(i18n.MsgCliUsage))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliStartWeb))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliCommandUsage))
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, i18n.T(i18n.MsgCliOptions))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliOptPort))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliOptBind))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliOptDebug))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliOptHelp))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliOptVersion))
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, i18n.T(i18n.MsgCliCommands))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliCmdDetect))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliCmdSettings))
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, i18n.T(i18n.MsgCliExamples))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliExampleStart))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliExampleDetect))
	fmt.Fprintln(b, i18n.T(i18n.MsgCliExampleNotify))
	return b.String()
}

// isInteractiveMode reports whether args start the server.
func isInteractiveMode(args []string) bool {
	if len(args) < 2 {
		return true
	}
	switch args[1] {
	case "-h", "--help", "help", "-v", "--version", "version", "detect", "settings":
		return false
	}
	return true
}

// isTerminal checks if stdin is a terminal (not piped or redirected).
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
