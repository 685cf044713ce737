package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishiMitra/internal/i18n"
)

type mapSettings map[string]string

func (m mapSettings) Get(key string) (string, error) { return m[key], nil }

type captured struct {
	mu     sync.Mutex
	method string
	ctype  string
	auth   string
	body   string
	calls  int
}

func webhookServer(t *testing.T) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.method = r.Method
		c.ctype = r.Header.Get("Content-Type")
		c.auth = r.Header.Get("Authorization")
		c.body = string(b)
		c.calls++
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestSendWithoutChannelsIsNoop(t *testing.T) {
	m := NewManager()
	m.Reload(mapSettings{})
	assert.False(t, m.HasChannels())
	assert.Empty(t, m.ChannelNames())
	assert.NoError(t, m.Send(context.Background(), "hello"))
}

func TestReloadWebhookAndSendFeedback(t *testing.T) {
	srv, got := webhookServer(t)

	m := NewManager()
	m.Reload(mapSettings{
		KeyWebhookURL:     srv.URL,
		KeyWebhookHeaders: "Authorization: Bearer t0k",
	})
	require.Equal(t, []string{"webhook"}, m.ChannelNames())

	err := m.SendFeedback(context.Background(), Feedback{
		ClientID: "c-1",
		Language: i18n.Marathi,
		Rating:   4,
		Message:  "useful soil tips",
	})
	require.NoError(t, err)

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, 1, got.calls)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "Bearer t0k", got.auth)
	assert.Contains(t, got.body, "New feedback (4/5, Marathi): useful soil tips")
	assert.Contains(t, got.body, "c-1")
}

func TestReloadReplacesChannels(t *testing.T) {
	srv, _ := webhookServer(t)
	m := NewManager()
	m.Reload(mapSettings{KeyWebhookURL: srv.URL, KeyLarkWebhookURL: srv.URL + "/lark"})
	assert.ElementsMatch(t, []string{"webhook", "lark"}, m.ChannelNames())

	m.Reload(mapSettings{})
	assert.False(t, m.HasChannels())
}

func TestSendToChannel(t *testing.T) {
	srv, got := webhookServer(t)
	m := NewManager()
	m.Reload(mapSettings{KeyWebhookURL: srv.URL, KeyWebhookTemplate: `{"text":"{message}"}`})

	require.NoError(t, m.SendToChannel(context.Background(), "webhook", "line \"one\""))
	assert.Error(t, m.SendToChannel(context.Background(), "slack", "x"))

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Contains(t, got.ctype, "application/json")
	assert.Contains(t, got.body, "one")
}

func TestEscapeJSON(t *testing.T) {
	assert.Equal(t, `a\"b\\c\nd`, escapeJSON("a\"b\\c\nd"))
}

func TestKeysAndSecrets(t *testing.T) {
	assert.True(t, IsKey(KeyWebhookURL))
	assert.False(t, IsKey("notify_pager_token"))
	assert.True(t, IsSecret(KeyTelegramToken))
	assert.True(t, IsSecret(KeyDingTalkSecret))
	assert.True(t, IsSecret(KeyWebhookHeaders))
	assert.False(t, IsSecret(KeyTelegramChatID))
}
