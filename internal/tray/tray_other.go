//go:build !windows

package tray

import "KrishiMitra/internal/i18n"

// Run is a no-op without a desktop tray.
func Run(addr string, onLanguage func(i18n.Language), onQuit func()) {}

// Quit is a no-op without a desktop tray.
func Quit() {}

// HasGUI reports whether a tray icon is available.
func HasGUI() bool {
	return false
}
