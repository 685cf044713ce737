// Package refetch re-runs a component's fetch callback, debounced, whenever
// the active language changes.
package refetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/metrics"
)

const DefaultDebounce = 300 * time.Millisecond

// Source is the language state a hook follows. *langstore.Store satisfies it.
type Source interface {
	Language() i18n.Language
	OnChange(fn langstore.ChangeFunc) (cancel func())
	Bus() *langstore.Bus
}

// FetchFunc loads data for lang. ctx is cancelled when the hook closes, not
// when a newer language supersedes lang; use Hook.Stale for that.
type FetchFunc func(ctx context.Context, lang i18n.Language) error

type Options struct {
	ComponentName           string
	RefetchOnLanguageChange bool
	DebounceDelay           time.Duration
	Debug                   bool
}

// DefaultOptions enables refetching with a 300ms debounce.
func DefaultOptions(componentName string) Options {
	return Options{
		ComponentName:           componentName,
		RefetchOnLanguageChange: true,
		DebounceDelay:           DefaultDebounce,
	}
}

// Hook is one component's registration.
type Hook struct {
	source Source
	fetch  FetchFunc
	opts   Options
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen i18n.Language
	timer    *time.Timer
	gen      uint64
	closed   bool

	unsubscribe []func()
	closeOnce   sync.Once
}

// New registers fetch against source. Both trigger paths are wired when
// RefetchOnLanguageChange is set: direct observation of the store and the
// language-data-reload broadcast filtered by ComponentName.
func New(source Source, fetch FetchFunc, opts Options) *Hook {
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hook{
		source:   source,
		fetch:    fetch,
		opts:     opts,
		log:      logger.Refetch.With().Str("component", opts.ComponentName).Logger(),
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: source.Language(),
	}

	if opts.RefetchOnLanguageChange {
		h.unsubscribe = append(h.unsubscribe,
			source.OnChange(func(_, _ i18n.Language) { h.Observe() }),
			source.Bus().Subscribe(langstore.TopicDataReload, h.onDataReload),
		)
	}
	return h
}

// Observe compares the source language with the last one seen and
// schedules a fetch when they differ.
func (h *Hook) Observe() {
	lang := h.source.Language()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || lang == h.lastSeen {
		return
	}
	h.scheduleLocked(lang, "observe")
}

// Refresh schedules a fetch for the current language unconditionally.
func (h *Hook) Refresh() {
	lang := h.source.Language()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.scheduleLocked(lang, "refresh")
}

// Stale reports whether a response fetched for lang no longer matches the
// active language.
func (h *Hook) Stale(lang i18n.Language) bool {
	return h.source.Language() != lang
}

// Pending reports whether a debounced fetch is waiting to run.
func (h *Hook) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timer != nil
}

// Close cancels the pending fetch and detaches from the source.
func (h *Hook) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.gen++
		if h.timer != nil {
			h.timer.Stop()
			h.timer = nil
		}
		h.mu.Unlock()

		for _, unsub := range h.unsubscribe {
			unsub()
		}
		h.cancel()
	})
}

func (h *Hook) onDataReload(evt langstore.Event) {
	detail, ok := evt.Detail.(langstore.DataReload)
	if !ok || !hasTag(detail.Components, h.opts.ComponentName) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.scheduleLocked(detail.Language, "broadcast")
}

// scheduleLocked replaces any pending timer; only the survivor fetches.
func (h *Hook) scheduleLocked(lang i18n.Language, trigger string) {
	h.lastSeen = lang
	h.gen++
	gen := h.gen
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.opts.DebounceDelay, func() { h.fire(gen, lang) })

	if h.opts.Debug {
		h.log.Debug().Str("language", string(lang)).Str("trigger", trigger).Msg("refetch scheduled")
	}
}

func (h *Hook) fire(gen uint64, lang i18n.Language) {
	h.mu.Lock()
	if h.closed || gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.timer = nil
	h.mu.Unlock()

	metrics.RefetchDispatches.WithLabelValues(h.opts.ComponentName).Inc()

	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Msg("fetch callback panicked")
		}
	}()
	if err := h.fetch(h.ctx, lang); err != nil && h.opts.Debug {
		h.log.Debug().Err(err).Str("language", string(lang)).Msg("fetch callback failed")
	}
}

func hasTag(tags []string, name string) bool {
	if name == "" {
		return false
	}
	for _, t := range tags {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
