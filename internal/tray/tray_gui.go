//go:build windows

package tray

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"KrishiMitra/internal/i18n"

	"github.com/energye/systray"
)

// Run starts the system tray icon and opens the browser.
// onLanguage is called when a language is picked from the tray menu.
// This function blocks until the user quits via the tray menu or Quit is
// called.
func Run(addr string, onLanguage func(i18n.Language), onQuit func()) {
	browserAddr := strings.Replace(addr, "0.0.0.0", "localhost", 1)
	url := fmt.Sprintf("http://%s", browserAddr)

	systray.Run(func() {
		systray.SetIcon(generateIcon())
		systray.SetTitle("KrishiMitra")
		systray.SetTooltip(fmt.Sprintf("KrishiMitra - %s", url))

		systray.SetOnClick(func(menu systray.IMenu) {
			openBrowser(url)
		})
		systray.SetOnDClick(func(menu systray.IMenu) {
			openBrowser(url)
		})
		systray.SetOnRClick(func(menu systray.IMenu) {
			menu.ShowMenu()
		})

		mOpen := systray.AddMenuItem(i18n.T(i18n.MsgTrayOpenWebUI), "Open Web UI")
		mOpen.Click(func() {
			openBrowser(url)
		})

		systray.AddSeparator()

		mAddr := systray.AddMenuItem(i18n.T(i18n.MsgTrayAddress, map[string]interface{}{"Url": url}), "")
		mAddr.Disable()

		mLang := systray.AddMenuItem(i18n.T(i18n.MsgTrayLanguage), "")
		items := make(map[i18n.Language]*systray.MenuItem)
		for _, code := range i18n.Supported() {
			code := code
			item := mLang.AddSubMenuItemCheckbox(i18n.NativeName(code), i18n.Name(code), code == i18n.GetLanguage())
			items[code] = item
			item.Click(func() {
				for c, it := range items {
					if c == code {
						it.Check()
					} else {
						it.Uncheck()
					}
				}
				if onLanguage != nil {
					onLanguage(code)
				}
			})
		}

		systray.AddSeparator()

		mQuit := systray.AddMenuItem(i18n.T(i18n.MsgTrayQuit), "Quit")
		mQuit.Click(func() {
			if onQuit != nil {
				onQuit()
			}
			systray.Quit()
		})

		// Auto-open browser on first launch
		openBrowser(url)
	}, nil)
}

// Quit closes the tray, unblocking Run.
func Quit() {
	systray.Quit()
}

// HasGUI returns true on Windows.
func HasGUI() bool {
	return true
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
