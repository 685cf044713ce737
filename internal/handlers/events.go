package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/database"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/web"
)

const (
	streamKeepAlive = 25 * time.Second
	statsWindow     = 7 * 24 * time.Hour
)

// ActivityReader is the query side of database.ActivityRepo.
type ActivityReader interface {
	List(filter database.ActivityFilter) ([]database.Activity, int64, error)
	CountByLanguage(since time.Time) (map[string]int64, error)
	CountByCategory(since time.Time) (map[string]int64, error)
}

type EventsHandler struct {
	workspaces *dashboard.Manager
	activities ActivityReader
	keepAlive  time.Duration
}

func NewEventsHandler(workspaces *dashboard.Manager, activities ActivityReader) *EventsHandler {
	return &EventsHandler{workspaces: workspaces, activities: activities, keepAlive: streamKeepAlive}
}

type activityPage struct {
	Items    []database.Activity `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// Activities lists the calling client's activity log, newest first.
func (h *EventsHandler) Activities(w http.ResponseWriter, r *http.Request) {
	pq := web.ParsePageQuery(r)
	filter := database.ActivityFilter{
		Page:     pq.Page,
		PageSize: pq.PageSize,
		ClientID: web.GetClientID(r),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Language: strings.TrimSpace(r.URL.Query().Get("language")),
	}
	if s := r.URL.Query().Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			web.FailErr(w, r, web.ErrInvalidBody)
			return
		}
		filter.Since = since
	}

	items, total, err := h.activities.List(filter)
	if err != nil {
		logger.HTTP.Error().Err(err).Msg("activity query failed")
		web.FailErr(w, r, web.ErrInternal)
		return
	}
	if items == nil {
		items = []database.Activity{}
	}
	web.OK(w, r, activityPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// Stats summarises the last week of activity across all clients.
func (h *EventsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-statsWindow)
	byLang, err := h.activities.CountByLanguage(since)
	if err != nil {
		web.FailErr(w, r, web.ErrInternal)
		return
	}
	byCat, err := h.activities.CountByCategory(since)
	if err != nil {
		web.FailErr(w, r, web.ErrInternal)
		return
	}
	web.OK(w, r, map[string]interface{}{
		"since":      since.UTC(),
		"byLanguage": byLang,
		"byCategory": byCat,
	})
}

// Stream relays the client's language broadcasts as server-sent events,
// for clients that cannot hold a WebSocket. The first event is a snapshot.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(h.workspaces, r)

	emitter, err := web.NewEventEmitter(w)
	if err != nil {
		web.FailErr(w, r, web.ErrInternal)
		return
	}

	events := make(chan langstore.Event, 32)
	cancel := ws.Store.Bus().SubscribeAll(func(evt langstore.Event) {
		select {
		case events <- evt:
		default:
			logger.HTTP.Warn().Str("client", ws.ClientID).Str("topic", string(evt.Topic)).Msg("event stream full, dropping event")
		}
	})
	defer cancel()

	// the heartbeat must stop as soon as Stream returns
	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go emitter.KeepAlive(ctx, h.keepAlive)

	if err := emitter.Emit(web.StreamEvent{Type: "snapshot", Data: ws.Store.Snapshot()}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			ws.Touch()
			if err := emitter.Emit(web.StreamEvent{Type: string(evt.Topic), Data: evt.Detail}); err != nil {
				return
			}
		}
	}
}
