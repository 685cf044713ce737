// Package notify forwards feedback-card submissions to the chat and webhook
// channels configured in the settings table.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/logger"

	nfy "github.com/nikoksr/notify"
	nfydd "github.com/nikoksr/notify/service/dingding"
	nfydc "github.com/nikoksr/notify/service/discord"
	nfyhttp "github.com/nikoksr/notify/service/http"
	nfylark "github.com/nikoksr/notify/service/lark"
	nfyslack "github.com/nikoksr/notify/service/slack"
	nfytg "github.com/nikoksr/notify/service/telegram"
)

// Setting keys read by Reload.
const (
	KeyTelegramToken    = "notify_telegram_token"
	KeyTelegramChatID   = "notify_telegram_chat_id"
	KeyDiscordToken     = "notify_discord_token"
	KeyDiscordChannelID = "notify_discord_channel_id"
	KeySlackToken       = "notify_slack_token"
	KeySlackChannelID   = "notify_slack_channel_id"
	KeyDingTalkToken    = "notify_dingtalk_token"
	KeyDingTalkSecret   = "notify_dingtalk_secret"
	KeyLarkWebhookURL   = "notify_lark_webhook_url"
	KeyWebhookURL       = "notify_webhook_url"
	KeyWebhookMethod    = "notify_webhook_method"
	KeyWebhookHeaders   = "notify_webhook_headers"
	KeyWebhookTemplate  = "notify_webhook_template"
)

// Keys lists every setting Reload reads, in display order.
var Keys = []string{
	KeyTelegramToken, KeyTelegramChatID,
	KeyDiscordToken, KeyDiscordChannelID,
	KeySlackToken, KeySlackChannelID,
	KeyDingTalkToken, KeyDingTalkSecret,
	KeyLarkWebhookURL,
	KeyWebhookURL, KeyWebhookMethod, KeyWebhookHeaders, KeyWebhookTemplate,
}

// IsKey reports whether key is one of Keys.
func IsKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// IsSecret reports whether the value of key should be masked when shown.
func IsSecret(key string) bool {
	return strings.HasSuffix(key, "_token") || strings.HasSuffix(key, "_secret") || key == KeyWebhookHeaders
}

const subject = "KrishiMitra"

// Settings is the read side of the settings repository.
type Settings interface {
	Get(key string) (string, error)
}

// Feedback is one submission from the feedback card.
type Feedback struct {
	ClientID string
	Language i18n.Language
	Rating   int
	Message  string
}

// Manager wraps nikoksr/notify.Notify and rebuilds its services when the
// settings change.
type Manager struct {
	mu               sync.RWMutex
	notifier         *nfy.Notify
	channelNames     []string
	channelNotifiers map[string]*nfy.Notify
}

func NewManager() *Manager {
	return &Manager{
		notifier:         nfy.New(),
		channelNotifiers: map[string]*nfy.Notify{},
	}
}

// Reload reads the notify_* settings and replaces every channel.
func (m *Manager) Reload(settings Settings) {
	get := func(key string) string {
		v, _ := settings.Get(key)
		return strings.TrimSpace(v)
	}

	n := nfy.New()
	perChannel := make(map[string]*nfy.Notify)
	var names []string
	use := func(name string, svc nfy.Notifier) {
		n.UseServices(svc)
		pc := nfy.New()
		pc.UseServices(svc)
		perChannel[name] = pc
		names = append(names, name)
	}

	if token, chat := get(KeyTelegramToken), get(KeyTelegramChatID); token != "" && chat != "" {
		svc, err := nfytg.New(token)
		if err != nil {
			logger.Log.Warn().Err(err).Msg(i18n.T(i18n.MsgLogTelegramInitFailed))
		} else if id, err := strconv.ParseInt(chat, 10, 64); err != nil {
			logger.Log.Warn().Str("chat_id", chat).Msg(i18n.T(i18n.MsgLogTelegramChatIdInvalid))
		} else {
			svc.AddReceivers(id)
			use("telegram", svc)
		}
	}

	if token, channel := get(KeyDiscordToken), get(KeyDiscordChannelID); token != "" && channel != "" {
		svc := nfydc.New()
		if err := svc.AuthenticateWithBotToken(token); err != nil {
			logger.Log.Warn().Err(err).Msg(i18n.T(i18n.MsgLogDiscordInitFailed))
		} else {
			svc.AddReceivers(channel)
			use("discord", svc)
		}
	}

	if token, channel := get(KeySlackToken), get(KeySlackChannelID); token != "" && channel != "" {
		svc := nfyslack.New(token)
		svc.AddReceivers(channel)
		use("slack", svc)
	}

	if token := get(KeyDingTalkToken); token != "" {
		use("dingtalk", nfydd.New(&nfydd.Config{Token: token, Secret: get(KeyDingTalkSecret)}))
	}

	if u := get(KeyLarkWebhookURL); u != "" {
		use("lark", nfylark.NewWebhookService(u))
	}

	if u := get(KeyWebhookURL); u != "" {
		use("webhook", webhookService(u, get(KeyWebhookMethod), get(KeyWebhookHeaders), get(KeyWebhookTemplate)))
	}

	m.mu.Lock()
	m.notifier = n
	m.channelNames = names
	m.channelNotifiers = perChannel
	m.mu.Unlock()

	logger.Log.Info().Int("channels", len(names)).Strs("names", names).Msg(i18n.T(i18n.MsgLogNotifyChannelsReload))
}

// webhookService posts plain text, or the template with {message}
// substituted when one is configured. A template that looks like JSON is
// sent as application/json.
func webhookService(url, method, headers, tmpl string) *nfyhttp.Service {
	if method == "" {
		method = http.MethodPost
	}
	hdrs := make(http.Header)
	for _, h := range strings.Split(headers, ",") {
		parts := strings.SplitN(strings.TrimSpace(h), ":", 2)
		if len(parts) == 2 {
			hdrs.Set(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}

	contentType := "text/plain; charset=utf-8"
	if t := strings.TrimSpace(tmpl); (strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")) ||
		(strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]")) {
		contentType = "application/json; charset=utf-8"
	}

	svc := nfyhttp.New()
	svc.AddReceivers(&nfyhttp.Webhook{
		URL:         url,
		Header:      hdrs,
		ContentType: contentType,
		Method:      method,
		BuildPayload: func(subject, message string) (payload any) {
			if tmpl == "" {
				return subject + "\n" + message
			}
			msg := message
			if strings.HasPrefix(contentType, "application/json") {
				msg = escapeJSON(message)
			}
			return strings.ReplaceAll(tmpl, "{message}", msg)
		},
	})
	return svc
}

// Send dispatches text to all configured channels. With no channels it is
// a no-op.
func (m *Manager) Send(ctx context.Context, text string) error {
	m.mu.RLock()
	n, count := m.notifier, len(m.channelNames)
	m.mu.RUnlock()

	if n == nil || count == 0 {
		return nil
	}
	if err := n.Send(ctx, subject, text); err != nil {
		logger.Log.Warn().Err(err).Msg(i18n.T(i18n.MsgLogNotifySendFailed))
		return err
	}
	return nil
}

// SendFeedback formats fb in English for the operators, since the
// receiving channels are not tied to the farmer's language.
func (m *Manager) SendFeedback(ctx context.Context, fb Feedback) error {
	text := i18n.TLang(i18n.English, i18n.MsgFeedbackNotify, map[string]interface{}{
		"Rating":   fb.Rating,
		"Language": i18n.Name(fb.Language),
		"Message":  fb.Message,
	})
	if fb.ClientID != "" {
		text += "\nclient: " + fb.ClientID
	}
	return m.Send(ctx, text)
}

// SendToChannel dispatches text to one channel by name.
func (m *Manager) SendToChannel(ctx context.Context, channel, text string) error {
	m.mu.RLock()
	pc := m.channelNotifiers[channel]
	m.mu.RUnlock()

	if pc == nil {
		return fmt.Errorf("channel %q not configured", channel)
	}
	if err := pc.Send(ctx, subject, text); err != nil {
		logger.Log.Warn().Err(err).Str("channel", channel).Msg(i18n.T(i18n.MsgLogNotifySendFailed))
		return err
	}
	return nil
}

func (m *Manager) HasChannels() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channelNames) > 0
}

func (m *Manager) ChannelNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.channelNames...)
}

func escapeJSON(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}
