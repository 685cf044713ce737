package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishiMitra/internal/database"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/provider"
)

type frame struct {
	client  string
	channel string
	typ     string
	payload interface{}
}

type fakePusher struct {
	mu        sync.Mutex
	frames    []frame
	connected map[string]bool
}

func (p *fakePusher) SendTo(clientID, channel, msgType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, frame{clientID, channel, msgType, payload})
	return nil
}

func (p *fakePusher) Connected(clientID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected[clientID]
}

func (p *fakePusher) cards(name string) []CardPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []CardPayload
	for _, f := range p.frames {
		if f.channel == ChannelCard && f.typ == name {
			out = append(out, f.payload.(CardPayload))
		}
	}
	return out
}

func (p *fakePusher) types(channel string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, f := range p.frames {
		if f.channel == channel {
			out = append(out, f.typ)
		}
	}
	return out
}

type memActivities struct {
	mu   sync.Mutex
	rows []database.Activity
}

func (m *memActivities) Create(a *database.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memActivities) all() []database.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.Activity(nil), m.rows...)
}

func newManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.DebounceDelay == 0 {
		opts.DebounceDelay = 30 * time.Millisecond
	}
	m := NewManager(opts)
	t.Cleanup(m.Close)
	return m
}

func TestWorkspaceHoldsTipCards(t *testing.T) {
	m := newManager(t, Options{})
	w := m.Get("c1")

	assert.Equal(t, []string{CardMarket, CardPest, CardSoil}, w.CardNames())
	assert.Same(t, w, m.Get("c1"))
	assert.Equal(t, 1, m.Len())

	_, ok := w.Card(CardWeather)
	assert.False(t, ok, "weather needs a configured provider and city")
}

func TestCardGetBuildsLocalizedPayload(t *testing.T) {
	m := newManager(t, Options{})
	w := m.Get("c1")
	soil, ok := w.Card(CardSoil)
	require.True(t, ok)

	p, err := soil.Get(context.Background(), i18n.Marathi)
	require.NoError(t, err)
	assert.Equal(t, i18n.Marathi, p.Language)
	assert.Equal(t, i18n.TLang(i18n.Marathi, i18n.MsgSoilTitle), p.Title)
	require.Len(t, p.Tips, 3)
	assert.Equal(t, i18n.TLang(i18n.Marathi, i18n.MsgSoilTipPH), p.Tips[0])

	cached, ok := soil.Cached(i18n.Marathi)
	assert.True(t, ok)
	assert.Equal(t, p, cached)
}

func TestLanguageChangeRefetchesAndPushesCards(t *testing.T) {
	pusher := &fakePusher{}
	m := newManager(t, Options{Pusher: pusher})
	w := m.Get("c1")

	require.NoError(t, w.Store.SetLanguage(i18n.Hindi))

	for _, name := range []string{CardSoil, CardPest, CardMarket} {
		assert.Eventually(t, func() bool { return len(pusher.cards(name)) > 0 }, time.Second, 10*time.Millisecond, name)
		got := pusher.cards(name)
		assert.Equal(t, i18n.Hindi, got[len(got)-1].Language)
		card, _ := w.Card(name)
		_, ok := card.Cached(i18n.Hindi)
		assert.True(t, ok)
	}

	assert.Eventually(t, func() bool {
		return len(pusher.types(ChannelLanguage)) >= 3
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"language-changed", "close-menus", "language-data-reload"}, pusher.types(ChannelLanguage)[:3])
}

func TestRapidSwitchesSettleOnLastLanguage(t *testing.T) {
	pusher := &fakePusher{}
	m := newManager(t, Options{Pusher: pusher, DebounceDelay: 80 * time.Millisecond})
	w := m.Get("c1")

	require.NoError(t, w.Store.SetLanguage(i18n.Hindi))
	require.NoError(t, w.Store.SetLanguage(i18n.Marathi))
	require.NoError(t, w.Store.SetLanguage(i18n.Tamil))

	assert.Eventually(t, func() bool { return len(pusher.cards(CardPest)) > 0 }, time.Second, 10*time.Millisecond)
	for _, p := range pusher.cards(CardPest) {
		assert.Equal(t, i18n.Tamil, p.Language)
	}
}

func TestStalePayloadIsDropped(t *testing.T) {
	pusher := &fakePusher{}
	m := newManager(t, Options{Pusher: pusher})
	w := m.Get("c1")
	market, _ := w.Card(CardMarket)

	// The client is still on English, so a Bengali result is stale.
	require.NoError(t, market.fetch(context.Background(), i18n.Bengali))
	_, ok := market.Cached(i18n.Bengali)
	assert.False(t, ok)
	assert.Empty(t, pusher.cards(CardMarket))
}

func TestActivityRecordedPerChange(t *testing.T) {
	acts := &memActivities{}
	m := newManager(t, Options{Activities: acts})
	w := m.Get("c1")

	require.NoError(t, w.Store.SetLanguage(i18n.Gujarati))
	assert.True(t, w.Store.AutoSetLanguageFromInput("what fertilizer should I use for my wheat crop"))
	w.Record(database.CategoryFeedback, "card", "5/5", "great")

	rows := acts.all()
	require.Len(t, rows, 3)
	assert.Equal(t, database.CategoryLanguage, rows[0].Category)
	assert.Equal(t, "manual", rows[0].Source)
	assert.Equal(t, "gu", rows[0].Language)
	assert.Equal(t, "en -> gu", rows[0].Summary)
	assert.Equal(t, "auto", rows[1].Source)
	assert.Equal(t, "en", rows[1].Language)
	assert.Equal(t, database.CategoryFeedback, rows[2].Category)
	assert.Equal(t, "c1", rows[2].ClientID)
}

func TestWorkspacePersistsPerClient(t *testing.T) {
	db, err := database.Open(database.Config{Driver: "sqlite", SQLitePath: ":memory:"}, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := database.NewSettingRepoWith(db)
	acts := &memActivities{}

	first := newManager(t, Options{Settings: repo, Activities: acts})
	require.NoError(t, first.Get("farmer-a").Store.SetLanguage(i18n.Marathi))
	first.Get("farmer-a").Store.ToggleDarkMode()
	first.Close()

	second := newManager(t, Options{Settings: repo, Activities: acts})
	a := second.Get("farmer-a")
	assert.Equal(t, i18n.Marathi, a.Store.Language())
	assert.True(t, a.Store.IsDarkMode())
	assert.Equal(t, i18n.English, second.Get("farmer-b").Store.Language())

	// Only the manual switch was recorded; hydration is not a change.
	assert.Len(t, acts.all(), 1)
}

func TestReportConnectivity(t *testing.T) {
	m := newManager(t, Options{})
	w := m.Get("c1")

	w.ReportConnectivity(false)
	assert.Eventually(t, func() bool { return !w.Store.IsOnline() }, time.Second, 5*time.Millisecond)
	w.ReportConnectivity(true)
	assert.Eventually(t, w.Store.IsOnline, time.Second, 5*time.Millisecond)
}

func TestReportConnectivityBurstKeepsLatest(t *testing.T) {
	w := &Workspace{connectivity: make(chan bool, 2)}
	for i := 0; i < 41; i++ {
		w.ReportConnectivity(i%2 == 0)
	}
	require.Len(t, w.connectivity, 2)
	<-w.connectivity
	assert.True(t, <-w.connectivity, "last queued value is the latest report")
}

func TestReportConnectivityBurstSettlesOnLatest(t *testing.T) {
	m := newManager(t, Options{})
	w := m.Get("c1")

	for i := 0; i < 41; i++ {
		w.ReportConnectivity(i%2 == 0)
	}
	require.Eventually(t, func() bool { return len(w.connectivity) == 0 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, w.Store.IsOnline())
}

func TestEvictIdle(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	pusher := &fakePusher{connected: map[string]bool{"online": true}}
	m := newManager(t, Options{Pusher: pusher, IdleTimeout: time.Hour, Now: clock})
	m.Get("idle")
	m.Get("online")
	advance(30 * time.Minute)
	m.Get("recent")

	advance(45 * time.Minute)
	assert.Equal(t, 1, m.EvictIdle())

	_, ok := m.Lookup("idle")
	assert.False(t, ok)
	_, ok = m.Lookup("online")
	assert.True(t, ok, "connected clients stay")
	_, ok = m.Lookup("recent")
	assert.True(t, ok)
}

func TestRemoveClosesWorkspace(t *testing.T) {
	m := newManager(t, Options{})
	w := m.Get("c1")
	m.Remove("c1")
	_, ok := m.Lookup("c1")
	assert.False(t, ok)
	w.Close() // idempotent
}

type fakeWeather struct {
	lang i18n.Language
	err  error
}

func (f fakeWeather) ByCity(_ context.Context, city string) (provider.Weather, error) {
	if f.err != nil {
		return provider.Weather{}, f.err
	}
	return provider.Weather{City: city, Temp: 31, Language: string(f.lang)}, nil
}

func TestWeatherCardBuilder(t *testing.T) {
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	build := weatherCardFrom(func(l i18n.Language) WeatherSource { return fakeWeather{lang: l} }, "Nashik", func() time.Time { return at })

	p, err := build(context.Background(), i18n.Marathi)
	require.NoError(t, err)
	assert.Equal(t, CardWeather, p.Name)
	assert.Equal(t, i18n.TLang(i18n.Marathi, i18n.MsgCardWeather), p.Title)
	require.NotNil(t, p.Weather)
	assert.Equal(t, "Nashik", p.Weather.City)
	assert.Equal(t, "mr", p.Weather.Language)

	failing := weatherCardFrom(func(i18n.Language) WeatherSource { return fakeWeather{err: provider.ErrTimeout} }, "Nashik", time.Now)
	_, err = failing(context.Background(), i18n.English)
	assert.True(t, errors.Is(err, provider.ErrTimeout))
}

func TestCardCacheExpires(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := langstore.New(langstore.Options{ClientID: "w"})
	t.Cleanup(store.Close)

	builds := 0
	build := func(_ context.Context, lang i18n.Language) (CardPayload, error) {
		builds++
		return CardPayload{Name: CardWeather, Language: lang, UpdatedAt: clock()}, nil
	}
	c := newCard(CardWeather, store, build, cardOptions{maxAge: 10 * time.Minute, now: clock, log: zerolog.Nop()})
	t.Cleanup(c.Close)

	_, err := c.Get(context.Background(), i18n.English)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), i18n.English)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)

	mu.Lock()
	now = now.Add(11 * time.Minute)
	mu.Unlock()
	_, err = c.Get(context.Background(), i18n.English)
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}
