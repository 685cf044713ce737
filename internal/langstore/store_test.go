package langstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/metrics"
)

// recordingUI logs every adapter call into a shared trace.
type recordingUI struct {
	mu       sync.Mutex
	trace    *[]string
	blurErr  error
	panicPtr bool
	themes   []bool
}

func (u *recordingUI) add(s string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	*u.trace = append(*u.trace, s)
}

func (u *recordingUI) BlurFocus() error {
	u.add("blur")
	return u.blurErr
}

func (u *recordingUI) PointerBurst() error {
	if u.panicPtr {
		panic("no pointer events")
	}
	u.add("pointer")
	return nil
}

func (u *recordingUI) ApplyTheme(dark bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.themes = append(u.themes, dark)
	return nil
}

// countingKV records every access and can be told to fail.
type countingKV struct {
	*MemoryKV
	mu     sync.Mutex
	gets   int
	sets   int
	failed bool
}

func newCountingKV() *countingKV { return &countingKV{MemoryKV: NewMemoryKV()} }

func (k *countingKV) Get(key string) (string, bool, error) {
	k.mu.Lock()
	k.gets++
	failed := k.failed
	k.mu.Unlock()
	if failed {
		return "", false, errors.New("storage disabled")
	}
	return k.MemoryKV.Get(key)
}

func (k *countingKV) Set(key, value string) error {
	k.mu.Lock()
	k.sets++
	failed := k.failed
	k.mu.Unlock()
	if failed {
		return errors.New("quota exceeded")
	}
	return k.MemoryKV.Set(key, value)
}

func stepFailures(t *testing.T, step string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.BroadcastStepFailures.WithLabelValues(step).Write(&m))
	return m.GetCounter().GetValue()
}

func newStore(t *testing.T, kv KV, ui UIAdapter) *Store {
	t.Helper()
	s := New(Options{ClientID: "test", KV: kv, UI: ui})
	t.Cleanup(s.Close)
	return s
}

func TestNewStoreDefaults(t *testing.T) {
	s := newStore(t, NewMemoryKV(), nil)
	snap := s.Snapshot()
	assert.Equal(t, i18n.English, snap.Language)
	assert.True(t, snap.IsOnline)
	assert.False(t, snap.IsDarkMode)
	assert.False(t, snap.Hydrated)
}

func TestSetLanguageIsSynchronousAndReloadFiresOnce(t *testing.T) {
	s := newStore(t, NewMemoryKV(), nil)
	s.Hydrate()

	var mu sync.Mutex
	var soil []DataReload
	cancel := s.Bus().Subscribe(TopicDataReload, func(e Event) {
		d := e.Detail.(DataReload)
		for _, c := range d.Components {
			if c == "soil" {
				mu.Lock()
				soil = append(soil, d)
				mu.Unlock()
			}
		}
	})
	defer cancel()

	require.NoError(t, s.SetLanguage(i18n.Hindi))
	assert.Equal(t, i18n.Hindi, s.Language())

	s.Flush()
	mu.Lock()
	require.Len(t, soil, 1)
	assert.Equal(t, i18n.Hindi, soil[0].Language)
	assert.Equal(t, i18n.English, soil[0].PreviousLanguage)
	assert.Equal(t, []string{"soil", "pest", "market"}, soil[0].Components)
	_, err := time.Parse(time.RFC3339, soil[0].Timestamp)
	assert.NoError(t, err)
	mu.Unlock()

	require.NoError(t, s.SetLanguage(i18n.Tamil))
	s.Flush()
	mu.Lock()
	assert.Len(t, soil, 2)
	mu.Unlock()
}

func TestSetLanguageRejectsUnsupported(t *testing.T) {
	kv := newCountingKV()
	s := newStore(t, kv, nil)
	s.Hydrate()

	var published int
	s.Bus().SubscribeAll(func(Event) { published++ })

	err := s.SetLanguage("fr")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Equal(t, i18n.English, s.Language())

	s.Flush()
	assert.Zero(t, published)
	_, ok, _ := kv.MemoryKV.Get(KeyLanguage)
	assert.False(t, ok)
}

func TestLanguageSurvivesReload(t *testing.T) {
	kv := NewMemoryKV()
	first := newStore(t, kv, nil)
	first.Hydrate()
	require.NoError(t, first.SetLanguage(i18n.Hindi))

	second := newStore(t, kv, nil)
	assert.Equal(t, i18n.English, second.Language(), "defaults until hydrated")
	second.Hydrate()
	assert.Equal(t, i18n.Hindi, second.Language())
}

func TestNoStorageAccessBeforeHydrate(t *testing.T) {
	kv := newCountingKV()
	require.NoError(t, kv.MemoryKV.Set(KeyLanguage, "ta"))

	s := newStore(t, kv, nil)
	require.NoError(t, s.SetLanguage(i18n.Gujarati))
	s.ToggleDarkMode()
	_ = s.Snapshot()
	s.Flush()

	assert.Zero(t, kv.gets)
	assert.Zero(t, kv.sets)

	s.Hydrate()
	assert.Equal(t, 2, kv.gets)
	// Values set before the gate opened are newer than the saved ones.
	assert.Equal(t, i18n.Gujarati, s.Language())
	v, _, _ := kv.MemoryKV.Get(KeyLanguage)
	assert.Equal(t, "gu", v)
	v, _, _ = kv.MemoryKV.Get(KeyTheme)
	assert.Equal(t, "dark", v)
}

func TestHydrateRunsOnce(t *testing.T) {
	kv := newCountingKV()
	s := newStore(t, kv, nil)
	s.Hydrate()
	s.Hydrate()
	s.Hydrate()
	assert.Equal(t, 2, kv.gets)
	assert.True(t, s.Snapshot().Hydrated)
}

func TestHydrateIgnoresInvalidSavedValues(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyLanguage, "klingon"))
	require.NoError(t, kv.Set(KeyTheme, "sepia"))

	s := newStore(t, kv, nil)
	s.Hydrate()
	assert.Equal(t, i18n.English, s.Language())
	assert.False(t, s.IsDarkMode())
}

func TestHydrateAppliesThemeAndNotifiesObservers(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyLanguage, "bn"))
	require.NoError(t, kv.Set(KeyTheme, "dark"))

	var trace []string
	ui := &recordingUI{trace: &trace}
	s := newStore(t, kv, ui)

	var seen []i18n.Language
	s.OnChange(func(_, next i18n.Language) { seen = append(seen, next) })

	s.Hydrate()
	assert.Equal(t, []i18n.Language{i18n.Bengali}, seen)
	assert.True(t, s.IsDarkMode())
	assert.Equal(t, []bool{true}, ui.themes)

	s.Flush()
	assert.Empty(t, trace, "hydration does not broadcast")
}

func TestStorageFailuresAreAbsorbed(t *testing.T) {
	kv := newCountingKV()
	kv.failed = true

	s := newStore(t, kv, nil)
	s.Hydrate()
	assert.Equal(t, i18n.English, s.Language())

	assert.NoError(t, s.SetLanguage(i18n.Punjabi))
	assert.Equal(t, i18n.Punjabi, s.Language())
	assert.True(t, s.ToggleDarkMode())
}

func TestBroadcastOrder(t *testing.T) {
	var trace []string
	ui := &recordingUI{trace: &trace}
	s := newStore(t, NewMemoryKV(), ui)
	s.Hydrate()

	s.Bus().SubscribeAll(func(e Event) { ui.add(string(e.Topic)) })
	s.OnChange(func(_, next i18n.Language) { ui.add("observer:" + string(next)) })

	require.NoError(t, s.SetLanguage(i18n.Telugu))
	s.Flush()

	assert.Equal(t, []string{
		"observer:te",
		"blur",
		"language-changed",
		"close-menus",
		"language-data-reload",
		"pointer",
	}, trace)
}

func TestBroadcastStepsAreIsolated(t *testing.T) {
	var trace []string
	ui := &recordingUI{trace: &trace, blurErr: errors.New("no focus api"), panicPtr: true}
	s := newStore(t, NewMemoryKV(), ui)
	s.Hydrate()

	s.Bus().Subscribe(TopicLanguageChanged, func(Event) { panic("listener bug") })
	s.Bus().SubscribeAll(func(e Event) { ui.add(string(e.Topic)) })

	blurFailures := stepFailures(t, "blur-focus")

	require.NoError(t, s.SetLanguage(i18n.Marathi))
	s.Flush()

	assert.Equal(t, []string{"blur", "language-changed", "close-menus", "language-data-reload"}, trace)
	assert.Equal(t, i18n.Marathi, s.Language())
	assert.Equal(t, blurFailures+1, stepFailures(t, "blur-focus"))
}

func TestBroadcastWithoutUIAdapter(t *testing.T) {
	s := newStore(t, nil, nil)
	var topics []Topic
	s.Bus().SubscribeAll(func(e Event) { topics = append(topics, e.Topic) })

	blurFailures := stepFailures(t, "blur-focus")
	burstFailures := stepFailures(t, "pointer-burst")

	require.NoError(t, s.SetLanguage(i18n.Hindi))
	s.Flush()
	assert.Equal(t, []Topic{TopicLanguageChanged, TopicCloseMenus, TopicDataReload}, topics)
	assert.Equal(t, blurFailures, stepFailures(t, "blur-focus"), "a missing adapter is not a failure")
	assert.Equal(t, burstFailures, stepFailures(t, "pointer-burst"))
}

// offlineUI fails every call the way a client without an open socket does.
type offlineUI struct{}

func (offlineUI) BlurFocus() error { return fmt.Errorf("%w: no socket", ErrUIUnsupported) }
func (offlineUI) PointerBurst() error { return fmt.Errorf("%w: no socket", ErrUIUnsupported) }
func (offlineUI) ApplyTheme(bool) error { return fmt.Errorf("%w: no socket", ErrUIUnsupported) }

func TestBroadcastToDisconnectedUIIsNotAFailure(t *testing.T) {
	s := newStore(t, nil, offlineUI{})
	blurFailures := stepFailures(t, "blur-focus")

	require.NoError(t, s.SetLanguage(i18n.Tamil))
	s.Flush()
	assert.Equal(t, blurFailures, stepFailures(t, "blur-focus"))
	assert.Equal(t, i18n.Tamil, s.Language())
}

func TestRapidSwitchesBroadcastInOrder(t *testing.T) {
	s := newStore(t, NewMemoryKV(), nil)
	s.Hydrate()

	var got []i18n.Language
	s.Bus().Subscribe(TopicLanguageChanged, func(e Event) {
		got = append(got, e.Detail.(LanguageChanged).Language)
	})

	for _, l := range []i18n.Language{i18n.Hindi, i18n.Marathi, i18n.Tamil} {
		require.NoError(t, s.SetLanguage(l))
	}
	s.Flush()
	assert.Equal(t, []i18n.Language{i18n.Hindi, i18n.Marathi, i18n.Tamil}, got)
}

func TestObserverCancel(t *testing.T) {
	s := newStore(t, nil, nil)
	calls := 0
	cancel := s.OnChange(func(_, _ i18n.Language) { calls++ })
	require.NoError(t, s.SetLanguage(i18n.Hindi))
	cancel()
	require.NoError(t, s.SetLanguage(i18n.Tamil))
	assert.Equal(t, 1, calls)
}

func TestOnChangeDetailCarriesSource(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New(Options{ClientID: "detail", KV: NewMemoryKV(), Now: func() time.Time { return at }})
	t.Cleanup(s.Close)

	var got []Change
	s.OnChangeDetail(func(c Change) { got = append(got, c) })

	require.NoError(t, s.SetLanguageFrom(i18n.Gujarati, "tray"))
	require.NoError(t, s.SetLanguage(i18n.Bengali))

	require.Len(t, got, 2)
	assert.Equal(t, Change{Previous: i18n.English, Language: i18n.Gujarati, Source: "tray", At: at}, got[0])
	assert.Equal(t, "manual", got[1].Source)
	assert.Equal(t, i18n.Gujarati, got[1].Previous)
}

func TestToggleDarkMode(t *testing.T) {
	kv := NewMemoryKV()
	var trace []string
	ui := &recordingUI{trace: &trace}
	s := newStore(t, kv, ui)
	s.Hydrate()

	assert.True(t, s.ToggleDarkMode())
	v, _, _ := kv.Get(KeyTheme)
	assert.Equal(t, "dark", v)

	assert.False(t, s.ToggleDarkMode())
	v, _, _ = kv.Get(KeyTheme)
	assert.Equal(t, "light", v)
	assert.Equal(t, []bool{true, false}, ui.themes)
}

func TestTranslateFollowsLanguage(t *testing.T) {
	s := newStore(t, nil, nil)
	assert.Equal(t, "Weather", s.T(i18n.MsgCardWeather))
	require.NoError(t, s.SetLanguage(i18n.Hindi))
	assert.Equal(t, "मौसम", s.T(i18n.MsgCardWeather))
}

func TestDetectAndSuggestLanguage(t *testing.T) {
	s := newStore(t, nil, nil)
	got := s.DetectAndSuggestLanguage("फसल के लिए क्या खाद है")
	assert.Equal(t, i18n.Hindi, got.DetectedLanguage)
	assert.True(t, got.ShouldSuggest)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, i18n.English, s.Language(), "suggestion has no side effects")
}

func TestAutoSetLanguageFromInput(t *testing.T) {
	s := newStore(t, NewMemoryKV(), nil)
	s.Hydrate()

	assert.False(t, s.AutoSetLanguageFromInput("மண்"), "too short")
	assert.False(t, s.AutoSetLanguageFromInput("   கக   "), "trimmed length counts")
	assert.Equal(t, i18n.English, s.Language())

	assert.False(t, s.AutoSetLanguageFromInput("What is the price of wheat"), "already english")

	assert.True(t, s.AutoSetLanguageFromInput("फसल के लिए क्या खाद है"))
	assert.Equal(t, i18n.Hindi, s.Language())

	assert.False(t, s.AutoSetLanguageFromInput("12345 67890"), "no evidence")
	assert.Equal(t, i18n.Hindi, s.Language())
}

func TestTrackConnectivity(t *testing.T) {
	s := newStore(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan bool)
	done := make(chan struct{})
	go func() {
		s.TrackConnectivity(ctx, updates)
		close(done)
	}()

	updates <- false
	assert.Eventually(t, func() bool { return !s.IsOnline() }, time.Second, 5*time.Millisecond)
	updates <- true
	assert.Eventually(t, s.IsOnline, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TrackConnectivity did not stop")
	}
}

func TestTrackConnectivityStopsOnClosedChannel(t *testing.T) {
	s := newStore(t, nil, nil)
	updates := make(chan bool, 1)
	updates <- false
	close(updates)
	s.TrackConnectivity(context.Background(), updates)
	assert.False(t, s.IsOnline())
}
