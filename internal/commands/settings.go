package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"KrishiMitra/internal/database"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/notify"
	"KrishiMitra/internal/webconfig"
)

const testNotifyTimeout = 15 * time.Second

// Settings reads and writes the notify_* channel settings.
//
//	krishimitra settings show
//	krishimitra settings set <key> <value>
//	krishimitra settings unset <key>
//	krishimitra settings test-notify <channel> [text]
func Settings(args []string) int {
	cfg, err := webconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.MsgServeConfigLoadFailed, map[string]interface{}{"Error": err.Error()}))
		return 1
	}
	if err := database.Init(cfg.Database, false); err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.MsgSettingsStoreFailed, map[string]interface{}{"Error": err.Error()}))
		return 1
	}
	defer database.Close()
	return runSettings(args, database.NewSettingRepo(), os.Stdout)
}

func runSettings(args []string, repo *database.SettingRepo, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsUsage))
		return 2
	}
	switch args[0] {
	case "show":
		return settingsShow(repo, out)
	case "set":
		if len(args) < 3 {
			break
		}
		return settingsSet(repo, out, args[1], strings.Join(args[2:], " "))
	case "unset":
		if len(args) != 2 {
			break
		}
		return settingsUnset(repo, out, args[1])
	case "test-notify":
		if len(args) < 2 {
			break
		}
		return settingsTestNotify(repo, out, args[1], strings.Join(args[2:], " "))
	}
	fmt.Fprintln(out, i18n.T(i18n.MsgSettingsUsage))
	return 2
}

func settingsShow(repo *database.SettingRepo, out io.Writer) int {
	all, err := repo.GetAll()
	if err != nil {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsStoreFailed, map[string]interface{}{"Error": err.Error()}))
		return 1
	}

	fmt.Fprintln(out, i18n.T(i18n.MsgSettingsTitle))
	for _, key := range notify.Keys {
		v, ok := all[key]
		switch {
		case !ok || v == "":
			v = i18n.T(i18n.MsgSettingsNotSet)
		case notify.IsSecret(key):
			v = mask(v)
		}
		fmt.Fprintf(out, "  %-26s %s\n", key, v)
	}

	mgr := notify.NewManager()
	mgr.Reload(repo)
	printChannels(mgr, out)
	return 0
}

func settingsSet(repo *database.SettingRepo, out io.Writer, key, value string) int {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if !notify.IsKey(key) {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsUnknownKey, map[string]interface{}{
			"Key":  key,
			"Keys": strings.Join(notify.Keys, ", "),
		}))
		return 2
	}
	normalized, err := validateSetting(key, value)
	if err != nil {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsInvalidValue, map[string]interface{}{"Key": key, "Error": err.Error()}))
		return 2
	}
	if err := repo.SetBatch(map[string]string{key: normalized}); err != nil {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsStoreFailed, map[string]interface{}{"Error": err.Error()}))
		return 1
	}
	fmt.Fprintln(out, i18n.T(i18n.MsgSettingsSaved, map[string]interface{}{"Key": key}))
	return 0
}

func settingsUnset(repo *database.SettingRepo, out io.Writer, key string) int {
	key = strings.ToLower(strings.TrimSpace(key))
	if !notify.IsKey(key) {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsUnknownKey, map[string]interface{}{
			"Key":  key,
			"Keys": strings.Join(notify.Keys, ", "),
		}))
		return 2
	}
	if err := repo.Delete(key); err != nil {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsStoreFailed, map[string]interface{}{"Error": err.Error()}))
		return 1
	}
	fmt.Fprintln(out, i18n.T(i18n.MsgSettingsRemoved, map[string]interface{}{"Key": key}))
	return 0
}

func settingsTestNotify(repo *database.SettingRepo, out io.Writer, channel, text string) int {
	mgr := notify.NewManager()
	mgr.Reload(repo)
	if !mgr.HasChannels() {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsNoChannels))
		return 1
	}
	if text == "" {
		text = i18n.T(i18n.MsgSettingsTestText)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testNotifyTimeout)
	defer cancel()
	if err := mgr.SendToChannel(ctx, channel, text); err != nil {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsTestFailed, map[string]interface{}{"Channel": channel, "Error": err.Error()}))
		printChannels(mgr, out)
		return 1
	}
	fmt.Fprintln(out, i18n.T(i18n.MsgSettingsTestSent, map[string]interface{}{"Channel": channel}))
	return 0
}

func printChannels(mgr *notify.Manager, out io.Writer) {
	if !mgr.HasChannels() {
		fmt.Fprintln(out, i18n.T(i18n.MsgSettingsNoChannels))
		return
	}
	fmt.Fprintln(out, i18n.T(i18n.MsgSettingsChannels, map[string]interface{}{
		"Channels": strings.Join(mgr.ChannelNames(), ", "),
	}))
}

// validateSetting checks value for key and returns the form to store.
// An empty value is always accepted and disables the channel.
func validateSetting(key, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	switch key {
	case notify.KeyLarkWebhookURL, notify.KeyWebhookURL:
		u, err := url.Parse(value)
		if err != nil {
			return "", err
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", fmt.Errorf("expected an http(s) URL")
		}
	case notify.KeyWebhookMethod:
		m := strings.ToUpper(value)
		switch m {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch:
			return m, nil
		}
		return "", fmt.Errorf("unsupported method %q", value)
	case notify.KeyWebhookHeaders:
		for _, h := range strings.Split(value, ",") {
			if !strings.Contains(h, ":") {
				return "", fmt.Errorf("header %q is not Name: value", strings.TrimSpace(h))
			}
		}
	}
	return value, nil
}

func mask(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
