package dashboard

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"KrishiMitra/internal/database"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langstore"
)

// Workspace is everything the server holds for one client: the language
// store, the cards that follow it, the connectivity feed and the activity
// recorder.
type Workspace struct {
	ClientID string
	Store    *langstore.Store

	cards        map[string]*Card
	connectivity chan bool
	activities   ActivityRecorder
	now          func() time.Time
	log          zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	unsub  []func()

	lastSeen  atomic.Int64
	closeOnce sync.Once
}

// Card returns the named card.
func (w *Workspace) Card(name string) (*Card, bool) {
	c, ok := w.cards[name]
	return c, ok
}

// CardNames lists the cards this workspace holds, sorted.
func (w *Workspace) CardNames() []string {
	names := make([]string, 0, len(w.cards))
	for n := range w.cards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ReportConnectivity feeds an online/offline transition to the store.
// It never blocks. When the feed is full the oldest pending value is
// dropped, so the latest transition is always the last one applied.
func (w *Workspace) ReportConnectivity(online bool) {
	for {
		select {
		case w.connectivity <- online:
			return
		default:
		}
		select {
		case <-w.connectivity:
		default:
		}
	}
}

// Record writes one activity row for this client. Failures are logged.
func (w *Workspace) Record(category, source, summary, detail string) {
	if w.activities == nil {
		return
	}
	err := w.activities.Create(&database.Activity{
		ClientID: w.ClientID,
		Category: category,
		Language: string(w.Store.Language()),
		Source:   source,
		Summary:  summary,
		Detail:   detail,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("category", category).Msg("activity write failed")
	}
}

// Touch marks the workspace as used now.
func (w *Workspace) Touch() { w.lastSeen.Store(w.now().UnixNano()) }

func (w *Workspace) idleSince() time.Time { return time.Unix(0, w.lastSeen.Load()) }

// Close stops the cards, detaches every subscription and closes the store
// after its pending broadcasts ran.
func (w *Workspace) Close() {
	w.closeOnce.Do(func() {
		for _, c := range w.cards {
			c.Close()
		}
		for _, u := range w.unsub {
			u()
		}
		w.cancel()
		w.Store.Close()
		w.log.Info().Msg(i18n.T(i18n.MsgLogWorkspaceClosed))
	})
}

func (w *Workspace) recordChange(c langstore.Change) {
	if c.Source == "hydrate" || w.activities == nil {
		return
	}
	err := w.activities.Create(&database.Activity{
		ClientID:  w.ClientID,
		Category:  database.CategoryLanguage,
		Language:  string(c.Language),
		Source:    c.Source,
		Summary:   string(c.Previous) + " -> " + string(c.Language),
		CreatedAt: c.At,
	})
	if err != nil {
		w.log.Warn().Err(err).Msg("language activity write failed")
	}
}
