package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/refetch"
)

func newChat(t *testing.T, h http.HandlerFunc, lang i18n.Language) *ChatClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewChatClient(ChatConfig{URL: srv.URL, APIKey: "k", Model: "sonar"}, refetch.FixedLanguage(lang))
}

func TestChatCompletePrependsLocalizedSystemPrompt(t *testing.T) {
	var got chatRequest
	var header http.Header
	var query string
	c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		query = r.URL.Query().Get("lang")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"नीम का तेल छिड़कें"}}],"citations":["https://icar.org.in"]}`))
	}, i18n.Hindi)

	out, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "कीट से कैसे बचें?"}})
	require.NoError(t, err)

	assert.Equal(t, "नीम का तेल छिड़कें", out.Text)
	assert.Equal(t, []string{"https://icar.org.in"}, out.Citations)
	assert.Equal(t, "hi", out.Language)
	assert.False(t, out.Fallback)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Hindi")
	assert.Equal(t, "sonar", got.Model)
	assert.Equal(t, "Bearer k", header.Get("Authorization"))
	assert.Equal(t, "hi", header.Get("X-Language"))
	assert.Equal(t, "hi", query)
}

func TestChatKeepsCallerSystemPrompt(t *testing.T) {
	var got chatRequest
	c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}, i18n.English)

	_, err := c.Complete(context.Background(), []Message{{Role: "system", Content: "custom"}, {Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "custom", got.Messages[0].Content)
}

func TestChatFallbacks(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusBadGateway} {
		c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}, i18n.Marathi)

		out, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
		require.NoError(t, err, "status %d", status)
		assert.True(t, out.Fallback)
		assert.Equal(t, i18n.TLang(i18n.Marathi, i18n.MsgChatFallback), out.Text)
		assert.Equal(t, "mr", out.Language)
	}
}

func TestChatTransportFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewChatClient(ChatConfig{URL: url, APIKey: "k"}, refetch.FixedLanguage(i18n.Tamil))
	out, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
}

func TestChatUnconfiguredFallsBack(t *testing.T) {
	c := NewChatClient(ChatConfig{}, refetch.FixedLanguage(i18n.English))
	assert.False(t, c.Configured())
	out, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
}

func TestChatBadRequestIsAnError(t *testing.T) {
	c := newChat(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad model", http.StatusBadRequest)
	}, i18n.English)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = c.Complete(context.Background(), nil)
	assert.Error(t, err)
}

const owmBody = `{
  "name": "Pune",
  "main": {"temp": 27.46, "feels_like": 28.1, "humidity": 61, "pressure": 1009},
  "wind": {"speed": 3.6},
  "weather": [{"main": "Clouds", "description": "ढगाळ", "icon": "04d"}],
  "sys": {"country": "IN", "sunrise": 1700000000, "sunset": 1700040000}
}`

func TestWeatherByCity(t *testing.T) {
	var q map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		_, _ = w.Write([]byte(owmBody))
	}))
	defer srv.Close()

	c := NewWeatherClient(WeatherConfig{URL: srv.URL, APIKey: "abc"}, refetch.FixedLanguage(i18n.English))
	w, err := c.ByCity(context.Background(), " Pune ")
	require.NoError(t, err)

	assert.Equal(t, "Pune", w.City)
	assert.Equal(t, "IN", w.Country)
	assert.InDelta(t, 27.46, w.Temp, 0.001)
	assert.Equal(t, 61, w.Humidity)
	assert.Equal(t, "Clouds", w.Condition)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), w.Sunrise)
	assert.Equal(t, "Pune: 27.5°C, humidity 61%", w.Summary)

	assert.Equal(t, []string{"Pune"}, q["q"])
	assert.Equal(t, []string{"abc"}, q["appid"])
	assert.Equal(t, []string{"metric"}, q["units"])
	assert.Equal(t, []string{"en"}, q["lang"])
}

func TestWeatherByCoordsUsesLanguage(t *testing.T) {
	var q map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		_, _ = w.Write([]byte(owmBody))
	}))
	defer srv.Close()

	c := NewWeatherClient(WeatherConfig{URL: srv.URL, APIKey: "abc"}, refetch.FixedLanguage(i18n.English)).WithLanguage(i18n.Marathi)
	w, err := c.ByCoords(context.Background(), 18.52, 73.85)
	require.NoError(t, err)
	assert.Equal(t, "mr", w.Language)
	assert.Equal(t, []string{"18.5200"}, q["lat"])
	assert.Equal(t, []string{"73.8500"}, q["lon"])
	assert.Equal(t, []string{"mr"}, q["lang"])
}

func TestWeatherErrors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
	}))
	defer notFound.Close()
	c := NewWeatherClient(WeatherConfig{URL: notFound.URL, APIKey: "abc"}, refetch.FixedLanguage(i18n.English))
	_, err := c.ByCity(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.ByCity(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)

	block := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(block)
	c = NewWeatherClient(WeatherConfig{URL: slow.URL, APIKey: "abc", Timeout: 50 * time.Millisecond}, refetch.FixedLanguage(i18n.English))
	_, err = c.ByCity(context.Background(), "Pune")
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = NewWeatherClient(WeatherConfig{}, refetch.FixedLanguage(i18n.English)).ByCity(context.Background(), "Pune")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProbe(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	results := Probe(context.Background(), []Endpoint{
		{Name: "chat", URL: ok.URL},
		{Name: "weather", URL: broken.URL},
		{Name: "unset"},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].Reachable)
	assert.Equal(t, http.StatusMethodNotAllowed, results[0].Status)
	assert.False(t, results[1].Reachable)
	assert.Equal(t, "weather", results[1].Name)
	assert.False(t, results[2].Reachable)
	assert.Equal(t, "not configured", results[2].Error)
}

func TestProberCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	p := NewProber([]Endpoint{{Name: "chat", URL: srv.URL}}, time.Minute)
	p.Check(context.Background())
	p.Check(context.Background())
	assert.Equal(t, 1, hits)

	p.InvalidateCache()
	p.Check(context.Background())
	assert.Equal(t, 2, hits)
}
