package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"KrishiMitra/internal/dashboard"
	"KrishiMitra/internal/database"
	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/notify"
	"KrishiMitra/internal/web"
)

const maxFeedbackRunes = 2000

// FeedbackNotifier is the part of notify.Manager the handler uses.
type FeedbackNotifier interface {
	SendFeedback(ctx context.Context, fb notify.Feedback) error
}

type FeedbackHandler struct {
	workspaces *dashboard.Manager
	notifier   FeedbackNotifier
}

func NewFeedbackHandler(workspaces *dashboard.Manager, notifier FeedbackNotifier) *FeedbackHandler {
	return &FeedbackHandler{workspaces: workspaces, notifier: notifier}
}

// Submit records the feedback and forwards it to the configured channels
// in the background.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  int    `json:"rating"`
		Message string `json:"message"`
	}
	if err := web.DecodeJSON(r, &req); err != nil || req.Rating < 1 || req.Rating > 5 {
		web.FailErr(w, r, web.ErrInvalidBody)
		return
	}
	msg := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(msg) > maxFeedbackRunes {
		web.FailErr(w, r, web.ErrInvalidBody)
		return
	}

	ws := workspaceOf(h.workspaces, r)
	ws.Record(database.CategoryFeedback, "card", strconv.Itoa(req.Rating)+"/5", msg)

	if h.notifier != nil {
		fb := notify.Feedback{
			ClientID: ws.ClientID,
			Language: ws.Store.Language(),
			Rating:   req.Rating,
			Message:  msg,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = h.notifier.SendFeedback(ctx, fb)
		}()
	}

	web.OK(w, r, map[string]string{"message": ws.Store.T(i18n.MsgFeedbackThanks)})
}
