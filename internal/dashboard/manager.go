// Package dashboard keeps one workspace per connected client. A workspace
// owns the client's language store and the localized cards that refetch
// when that store's language changes; card updates and language events are
// pushed to the client over its realtime channel.
package dashboard

import (
	"context"
	"sync"
	"time"

	"KrishiMitra/internal/database"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/provider"
	"KrishiMitra/internal/refetch"
)

// Realtime channel names used for pushed frames.
const (
	ChannelCard     = "card"
	ChannelLanguage = "language"
)

const weatherMaxAge = 10 * time.Minute

// Pusher delivers frames to one client. *web.WSHub satisfies it.
type Pusher interface {
	SendTo(clientID, channel, msgType string, payload interface{}) error
	Connected(clientID string) bool
}

// ActivityRecorder persists activity rows. *database.ActivityRepo
// satisfies it.
type ActivityRecorder interface {
	Create(activity *database.Activity) error
}

type Options struct {
	// Settings backs each store with the client's scoped settings. Nil
	// keeps state in memory only.
	Settings   *database.SettingRepo
	Activities ActivityRecorder
	Pusher     Pusher
	// UI returns the interaction adapter for a client, if any.
	UI func(clientID string) langstore.UIAdapter

	Weather     *provider.WeatherClient
	WeatherCity string

	DebounceDelay time.Duration
	RefetchDebug  bool
	IdleTimeout   time.Duration
	Now           func() time.Time
}

// Manager owns every client workspace.
type Manager struct {
	opts Options

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = refetch.DefaultDebounce
	}
	return &Manager{opts: opts, workspaces: make(map[string]*Workspace)}
}

// Get returns the client's workspace, creating and hydrating it on first
// use.
func (m *Manager) Get(clientID string) *Workspace {
	m.mu.Lock()
	if w, ok := m.workspaces[clientID]; ok {
		m.mu.Unlock()
		w.Touch()
		return w
	}
	w := m.build(clientID)
	m.workspaces[clientID] = w
	m.mu.Unlock()

	// Hydration notifies the cards, which then warm up for the saved
	// language.
	w.Store.Hydrate()
	w.Touch()
	w.log.Info().Str("language", string(w.Store.Language())).Msg(i18n.T(i18n.MsgLogWorkspaceCreated))
	return w
}

// Lookup returns an existing workspace without creating one.
func (m *Manager) Lookup(clientID string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workspaces[clientID]
	return w, ok
}

// Each calls fn for every live workspace.
func (m *Manager) Each(fn func(*Workspace)) {
	m.mu.Lock()
	list := make([]*Workspace, 0, len(m.workspaces))
	for _, w := range m.workspaces {
		list = append(list, w)
	}
	m.mu.Unlock()
	for _, w := range list {
		fn(w)
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Remove closes and forgets the client's workspace.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	w, ok := m.workspaces[clientID]
	delete(m.workspaces, clientID)
	m.mu.Unlock()
	if ok {
		w.Close()
	}
}

// Run evicts idle workspaces until ctx is done. A workspace whose client
// still holds a realtime connection is never evicted.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.IdleTimeout <= 0 {
		return
	}
	interval := m.opts.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// EvictIdle closes workspaces unused for longer than the idle timeout and
// returns how many were removed.
func (m *Manager) EvictIdle() int {
	cutoff := m.opts.Now().Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var victims []*Workspace
	for id, w := range m.workspaces {
		if !w.idleSince().Before(cutoff) {
			continue
		}
		if m.opts.Pusher != nil && m.opts.Pusher.Connected(id) {
			continue
		}
		victims = append(victims, w)
		delete(m.workspaces, id)
	}
	m.mu.Unlock()

	for _, w := range victims {
		w.Close()
	}
	return len(victims)
}

// Close shuts every workspace down.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[string]*Workspace)
	m.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}

func (m *Manager) build(clientID string) *Workspace {
	var kv langstore.KV
	if m.opts.Settings != nil {
		kv = database.NewScopedSettings(m.opts.Settings, clientID)
	} else {
		kv = langstore.NewMemoryKV()
	}
	var ui langstore.UIAdapter
	if m.opts.UI != nil {
		ui = m.opts.UI(clientID)
	}
	store := langstore.New(langstore.Options{ClientID: clientID, KV: kv, UI: ui, Now: m.opts.Now})

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		ClientID:     clientID,
		Store:        store,
		cards:        make(map[string]*Card),
		connectivity: make(chan bool, 8),
		activities:   m.opts.Activities,
		now:          m.opts.Now,
		log:          logger.Log.With().Str("module", "dashboard").Str("client", clientID).Logger(),
		ctx:          ctx,
		cancel:       cancel,
	}

	push := func(p CardPayload) {
		if m.opts.Pusher == nil {
			return
		}
		if err := m.opts.Pusher.SendTo(clientID, ChannelCard, p.Name, p); err != nil {
			w.log.Debug().Err(err).Str("card", p.Name).Msg("card push skipped")
		}
	}
	copts := cardOptions{
		refetch: refetch.Options{
			RefetchOnLanguageChange: true,
			DebounceDelay:           m.opts.DebounceDelay,
			Debug:                   m.opts.RefetchDebug,
		},
		push: push,
		now:  m.opts.Now,
		log:  w.log,
	}

	for _, tc := range tipCards {
		w.cards[tc.name] = newCard(tc.name, store, tipsCard(tc.name, tc.title, tc.tips, m.opts.Now), copts)
	}
	if m.opts.Weather != nil && m.opts.Weather.Configured() && m.opts.WeatherCity != "" {
		wopts := copts
		wopts.maxAge = weatherMaxAge
		w.cards[CardWeather] = newCard(CardWeather, store, weatherCard(m.opts.Weather, m.opts.WeatherCity, m.opts.Now), wopts)
	}

	w.unsub = append(w.unsub, store.OnChangeDetail(w.recordChange))
	if m.opts.Pusher != nil {
		w.unsub = append(w.unsub, store.Bus().SubscribeAll(func(evt langstore.Event) {
			if err := m.opts.Pusher.SendTo(clientID, ChannelLanguage, string(evt.Topic), evt.Detail); err != nil {
				w.log.Debug().Err(err).Str("topic", string(evt.Topic)).Msg("language event push skipped")
			}
		}))
	}

	go store.TrackConnectivity(ctx, w.connectivity)
	return w
}
