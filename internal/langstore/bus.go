package langstore

import (
	"sync"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/logger"
)

// Topic names a broadcast channel.
type Topic string

const (
	TopicLanguageChanged Topic = "language-changed"
	TopicCloseMenus      Topic = "close-menus"
	TopicDataReload      Topic = "language-data-reload"
)

// LanguageChanged is the detail of TopicLanguageChanged.
type LanguageChanged struct {
	Language i18n.Language `json:"language"`
}

// DataReload is the detail of TopicDataReload.
type DataReload struct {
	Language         i18n.Language `json:"language"`
	PreviousLanguage i18n.Language `json:"previousLanguage"`
	Timestamp        string        `json:"timestamp"`
	Components       []string      `json:"components"`
}

// Event is one published notification. Detail is nil for TopicCloseMenus.
type Event struct {
	Topic  Topic       `json:"type"`
	Detail interface{} `json:"detail,omitempty"`
}

type Handler func(Event)

type subscription struct {
	id      uint64
	topic   Topic // empty matches every topic
	handler Handler
}

// Bus is an in-process publish/subscribe channel. Handlers run synchronously
// on the publishing goroutine in subscription order; a panicking handler is
// logged and does not stop delivery to the rest.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for topic and returns its cancel func.
func (b *Bus) Subscribe(topic Topic, h Handler) (cancel func()) {
	return b.add(topic, h)
}

// SubscribeAll registers h for every topic.
func (b *Bus) SubscribeAll(h Handler) (cancel func()) {
	return b.add("", h)
}

func (b *Bus) add(topic Topic, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers an event to every matching handler.
func (b *Bus) Publish(topic Topic, detail interface{}) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.topic == "" || s.topic == topic {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	evt := Event{Topic: topic, Detail: detail}
	for _, h := range targets {
		deliver(h, evt)
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func deliver(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Broadcast.Error().Str("topic", string(evt.Topic)).Interface("panic", r).Msg("bus handler panicked")
		}
	}()
	h(evt)
}
