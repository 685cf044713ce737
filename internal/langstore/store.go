// Package langstore holds the per-client language context: the active UI
// language, connectivity and theme, their durable persistence and the
// change broadcast that tells dependent components to reload.
package langstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langdetect"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/metrics"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrUIUnsupported       = errors.New("ui adapter unavailable")
)

// DataReloadComponents are the component tags that hold language-sensitive
// cached results. A new localized component must reuse one of these tags or
// be added here.
var DataReloadComponents = []string{"soil", "pest", "market"}

const (
	autoSetMinRunes   = 5
	autoSetConfidence = 80
)

// UIAdapter performs the interaction side effects of a language change on
// the client. The store never assumes one is present.
type UIAdapter interface {
	BlurFocus() error
	PointerBurst() error
	ApplyTheme(dark bool) error
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Language   i18n.Language `json:"language"`
	IsOnline   bool          `json:"isOnline"`
	IsDarkMode bool          `json:"isDarkMode"`
	Hydrated   bool          `json:"hydrated"`
}

// Suggestion is the reshaped mismatch result used by the switch prompt.
type Suggestion struct {
	DetectedLanguage i18n.Language `json:"detectedLanguage"`
	ShouldSuggest    bool          `json:"shouldSuggest"`
	Confidence       int           `json:"confidence"`
}

// ChangeFunc observes a language change synchronously.
type ChangeFunc func(prev, next i18n.Language)

// Change describes one language change for observers that also need to
// know what caused it: manual, auto, tray or hydrate.
type Change struct {
	Previous i18n.Language
	Language i18n.Language
	Source   string
	At       time.Time
}

type Options struct {
	ClientID   string
	KV         KV
	UI         UIAdapter
	Bus        *Bus
	Dispatcher *Dispatcher
	Now        func() time.Time
}

// Store is the single write path for one client's language, connectivity
// and theme state.
type Store struct {
	mu       sync.RWMutex
	language i18n.Language
	online   bool
	dark     bool
	hydrated bool

	// set before hydration; the in-memory value wins over the saved one
	langDirty  bool
	themeDirty bool

	hydrateOnce sync.Once

	observers  []observer
	observerID uint64

	kv         KV
	ui         UIAdapter
	bus        *Bus
	dispatch   *Dispatcher
	ownsQueue  bool
	now        func() time.Time
	log        zerolog.Logger
	closeOnce  sync.Once
	clientID   string
}

type observer struct {
	id uint64
	fn func(Change)
}

// New builds a store with built-in defaults (English, online, light).
// Storage is untouched until Hydrate.
func New(opts Options) *Store {
	s := &Store{
		language: i18n.Default,
		online:   true,
		kv:       opts.KV,
		ui:       opts.UI,
		bus:      opts.Bus,
		dispatch: opts.Dispatcher,
		now:      opts.Now,
		clientID: opts.ClientID,
		log:      logger.Store.With().Str("client", opts.ClientID).Logger(),
	}
	if s.bus == nil {
		s.bus = NewBus()
	}
	if s.dispatch == nil {
		s.dispatch = NewDispatcher()
		s.ownsQueue = true
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Store) ClientID() string { return s.clientID }

// Bus returns the broadcast channel of this store.
func (s *Store) Bus() *Bus { return s.bus }

// SetUI swaps the adapter, e.g. when a client's socket reconnects.
func (s *Store) SetUI(ui UIAdapter) {
	s.mu.Lock()
	s.ui = ui
	s.mu.Unlock()
}

func (s *Store) Language() i18n.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

func (s *Store) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

func (s *Store) IsDarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dark
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Language: s.language, IsOnline: s.online, IsDarkMode: s.dark, Hydrated: s.hydrated}
}

// OnChange registers fn to run synchronously after every language change,
// before the broadcast is delivered.
func (s *Store) OnChange(fn ChangeFunc) (cancel func()) {
	return s.OnChangeDetail(func(c Change) { fn(c.Previous, c.Language) })
}

// OnChangeDetail is OnChange with the cause and time of the change.
func (s *Store) OnChangeDetail(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	s.observerID++
	id := s.observerID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// SetLanguage makes code the active language. The new value is readable as
// soon as the call returns; persistence is best-effort and the change
// broadcast runs later on the dispatcher.
func (s *Store) SetLanguage(code i18n.Language) error {
	return s.setLanguage(code, "manual")
}

// SetLanguageFrom is SetLanguage with an explicit source label for logs,
// metrics and observers.
func (s *Store) SetLanguageFrom(code i18n.Language, source string) error {
	if source == "" {
		source = "manual"
	}
	return s.setLanguage(code, source)
}

func (s *Store) setLanguage(code i18n.Language, source string) error {
	if !i18n.IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	s.mu.Lock()
	prev := s.language
	s.language = code
	persist := s.hydrated
	if !s.hydrated {
		s.langDirty = true
	}
	observers := s.copyObservers()
	s.mu.Unlock()

	metrics.LanguageSwitches.WithLabelValues(string(code), source).Inc()
	s.log.Info().Str("from", string(prev)).Str("to", string(code)).Str("source", source).Msg("language changed")

	if persist {
		s.write(KeyLanguage, string(code))
	}
	at := s.now()
	s.notify(observers, Change{Previous: prev, Language: code, Source: source, At: at})

	if !s.dispatch.Post(func() { s.broadcast(prev, code, at) }) {
		s.log.Warn().Msg("dispatcher closed, language broadcast dropped")
	}
	return nil
}

// ToggleDarkMode flips the theme and returns the new value.
func (s *Store) ToggleDarkMode() bool {
	s.mu.Lock()
	s.dark = !s.dark
	dark := s.dark
	persist := s.hydrated
	if !s.hydrated {
		s.themeDirty = true
	}
	ui := s.ui
	s.mu.Unlock()

	if persist {
		s.write(KeyTheme, themeValue(dark))
	}
	s.applyTheme(ui, dark)
	return dark
}

// SetOnline records a connectivity transition.
func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if changed {
		s.log.Debug().Bool("online", online).Msg("connectivity changed")
	}
}

// TrackConnectivity applies transitions from updates until ctx is done or
// the channel is closed.
func (s *Store) TrackConnectivity(ctx context.Context, updates <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-updates:
			if !ok {
				return
			}
			s.SetOnline(online)
		}
	}
}

// T translates key into the active language.
func (s *Store) T(key string, data ...map[string]interface{}) string {
	return i18n.TLang(s.Language(), key, data...)
}

func (s *Store) DetectAndSuggestLanguage(text string) Suggestion {
	r := langdetect.CheckLanguageMismatch(text, s.Language())
	return Suggestion{
		DetectedLanguage: r.DetectedLanguage,
		ShouldSuggest:    r.ShouldSuggestChange,
		Confidence:       r.Confidence,
	}
}

// AutoSetLanguageFromInput switches language silently when text is long
// enough and the detection is stronger than what a suggestion needs.
func (s *Store) AutoSetLanguageFromInput(text string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < autoSetMinRunes {
		return false
	}
	r := langdetect.CheckLanguageMismatch(text, s.Language())
	if !r.ShouldSuggestChange || r.Confidence <= autoSetConfidence {
		return false
	}
	return s.setLanguage(r.DetectedLanguage, "auto") == nil
}

// Hydrate opens the storage gate and applies saved values. Only the first
// call has any effect.
func (s *Store) Hydrate() {
	s.hydrateOnce.Do(s.hydrate)
}

func (s *Store) hydrate() {
	savedLang, langOK := s.read(KeyLanguage)
	savedTheme, themeOK := s.read(KeyTheme)

	s.mu.Lock()
	prev := s.language
	if s.langDirty {
		langOK = false
	} else if langOK && !i18n.IsSupported(i18n.Language(savedLang)) {
		s.log.Warn().Str("value", savedLang).Msg("ignoring invalid saved language")
		langOK = false
	}
	if langOK {
		s.language = i18n.Language(savedLang)
	}
	if !s.themeDirty && themeOK {
		switch savedTheme {
		case "dark":
			s.dark = true
		case "light":
			s.dark = false
		default:
			s.log.Warn().Str("value", savedTheme).Msg("ignoring invalid saved theme")
		}
	}
	s.hydrated = true
	next := s.language
	dark := s.dark
	langDirty, themeDirty := s.langDirty, s.themeDirty
	ui := s.ui
	observers := s.copyObservers()
	s.mu.Unlock()

	if langDirty {
		s.write(KeyLanguage, string(next))
	}
	if themeDirty {
		s.write(KeyTheme, themeValue(dark))
	}
	if dark {
		s.applyTheme(ui, true)
	}
	if next != prev {
		s.notify(observers, Change{Previous: prev, Language: next, Source: "hydrate", At: s.now()})
	}
	s.log.Debug().Str("language", string(next)).Bool("dark", dark).Msg("store hydrated")
}

// Close stops the store's own dispatcher after pending broadcasts ran.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.ownsQueue {
			s.dispatch.Close()
		}
	})
}

// Flush waits for every broadcast queued so far.
func (s *Store) Flush() {
	s.dispatch.Flush()
}

func (s *Store) broadcast(prev, next i18n.Language, at time.Time) {
	s.mu.RLock()
	ui := s.ui
	s.mu.RUnlock()

	s.step("blur-focus", func() error {
		if ui == nil {
			return ErrUIUnsupported
		}
		return ui.BlurFocus()
	})
	s.step(string(TopicLanguageChanged), func() error {
		s.bus.Publish(TopicLanguageChanged, LanguageChanged{Language: next})
		return nil
	})
	s.step(string(TopicCloseMenus), func() error {
		s.bus.Publish(TopicCloseMenus, nil)
		return nil
	})
	s.step(string(TopicDataReload), func() error {
		components := make([]string, len(DataReloadComponents))
		copy(components, DataReloadComponents)
		s.bus.Publish(TopicDataReload, DataReload{
			Language:         next,
			PreviousLanguage: prev,
			Timestamp:        at.UTC().Format(time.RFC3339),
			Components:       components,
		})
		return nil
	})
	s.step("pointer-burst", func() error {
		if ui == nil {
			return ErrUIUnsupported
		}
		return ui.PointerBurst()
	})
}

// step runs one broadcast step; failures are logged and never stop the
// remaining steps.
func (s *Store) step(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.BroadcastStepFailures.WithLabelValues(name).Inc()
			logger.Broadcast.Error().Str("client", s.clientID).Str("step", name).Interface("panic", r).Msg("broadcast step panicked")
		}
	}()
	err := fn()
	switch {
	case err == nil:
	case errors.Is(err, ErrUIUnsupported):
		logger.Broadcast.Debug().Str("client", s.clientID).Str("step", name).Err(err).Msg("broadcast step skipped")
	default:
		metrics.BroadcastStepFailures.WithLabelValues(name).Inc()
		logger.Broadcast.Error().Str("client", s.clientID).Str("step", name).Err(err).Msg("broadcast step failed")
	}
}

func (s *Store) applyTheme(ui UIAdapter, dark bool) {
	if ui == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("apply theme panicked")
		}
	}()
	if err := ui.ApplyTheme(dark); err != nil {
		s.log.Warn().Err(err).Bool("dark", dark).Msg("apply theme failed")
	}
}

func (s *Store) read(key string) (string, bool) {
	if s.kv == nil {
		return "", false
	}
	v, ok, err := s.kv.Get(key)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("read").Inc()
		s.log.Warn().Str("key", key).Err(err).Msg("storage read failed, using defaults")
		return "", false
	}
	return v, ok
}

func (s *Store) write(key, value string) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Set(key, value); err != nil {
		metrics.StorageErrors.WithLabelValues("write").Inc()
		s.log.Warn().Str("key", key).Err(err).Msg("storage write failed, keeping in-memory value")
	}
}

func (s *Store) copyObservers() []observer {
	out := make([]observer, len(s.observers))
	copy(out, s.observers)
	return out
}

func (s *Store) notify(observers []observer, c Change) {
	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Msg("language observer panicked")
				}
			}()
			o.fn(c)
		}()
	}
}

func themeValue(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
