package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/provider"
	"KrishiMitra/internal/refetch"
)

// Card names. Soil, pest and market match langstore.DataReloadComponents.
const (
	CardSoil    = "soil"
	CardPest    = "pest"
	CardMarket  = "market"
	CardWeather = "weather"
)

// CardPayload is what a card renders for one language.
type CardPayload struct {
	Name      string            `json:"name"`
	Language  i18n.Language     `json:"language"`
	Title     string            `json:"title"`
	Tips      []string          `json:"tips,omitempty"`
	Weather   *provider.Weather `json:"weather,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Builder produces a card's payload for lang.
type Builder func(ctx context.Context, lang i18n.Language) (CardPayload, error)

// Card keeps localized payloads per language and refreshes them through a
// refetch hook when the client's language changes.
type Card struct {
	name   string
	build  Builder
	hook   *refetch.Hook
	push   func(CardPayload)
	maxAge time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu    sync.RWMutex
	cache map[i18n.Language]CardPayload
}

type cardOptions struct {
	refetch refetch.Options
	push    func(CardPayload)
	maxAge  time.Duration // zero keeps entries forever
	now     func() time.Time
	log     zerolog.Logger
}

func newCard(name string, source refetch.Source, build Builder, opts cardOptions) *Card {
	if opts.now == nil {
		opts.now = time.Now
	}
	c := &Card{
		name:   name,
		build:  build,
		push:   opts.push,
		maxAge: opts.maxAge,
		now:    opts.now,
		log:    opts.log.With().Str("card", name).Logger(),
		cache:  make(map[i18n.Language]CardPayload),
	}
	opts.refetch.ComponentName = name
	c.hook = refetch.New(source, c.fetch, opts.refetch)
	return c
}

func (c *Card) Name() string { return c.name }

// fetch is the hook callback. A payload built for a language the client has
// already left is dropped.
func (c *Card) fetch(ctx context.Context, lang i18n.Language) error {
	p, err := c.build(ctx, lang)
	if err != nil {
		return err
	}
	if c.hook.Stale(lang) {
		c.log.Debug().Str("language", string(lang)).Msg("dropping stale card payload")
		return nil
	}
	c.store(p)
	if c.push != nil {
		c.push(p)
	}
	return nil
}

// Get returns the cached payload for lang, building it on a miss.
func (c *Card) Get(ctx context.Context, lang i18n.Language) (CardPayload, error) {
	if p, ok := c.Cached(lang); ok {
		return p, nil
	}
	p, err := c.build(ctx, lang)
	if err != nil {
		return CardPayload{}, err
	}
	c.store(p)
	return p, nil
}

// Cached returns the payload for lang if one is held and fresh.
func (c *Card) Cached(lang i18n.Language) (CardPayload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.cache[lang]
	if !ok {
		return CardPayload{}, false
	}
	if c.maxAge > 0 && c.now().Sub(p.UpdatedAt) > c.maxAge {
		return CardPayload{}, false
	}
	return p, true
}

// Refresh schedules a debounced rebuild for the active language.
func (c *Card) Refresh() { c.hook.Refresh() }

// Refreshing reports whether a rebuild is scheduled but has not run yet.
func (c *Card) Refreshing() bool { return c.hook.Pending() }

func (c *Card) Close() { c.hook.Close() }

func (c *Card) store(p CardPayload) {
	c.mu.Lock()
	c.cache[p.Language] = p
	c.mu.Unlock()
}

// tipsCard builds a static card from a title and tip keys.
func tipsCard(name, titleKey string, tipKeys []string, now func() time.Time) Builder {
	return func(_ context.Context, lang i18n.Language) (CardPayload, error) {
		tips := make([]string, len(tipKeys))
		for i, k := range tipKeys {
			tips[i] = i18n.TLang(lang, k)
		}
		return CardPayload{
			Name:      name,
			Language:  lang,
			Title:     i18n.TLang(lang, titleKey),
			Tips:      tips,
			UpdatedAt: now(),
		}, nil
	}
}

// WeatherSource is the part of provider.WeatherClient the weather card needs.
type WeatherSource interface {
	ByCity(ctx context.Context, city string) (provider.Weather, error)
}

// weatherCard looks up city through a client pinned to each language so
// the provider localizes its descriptions.
func weatherCard(client *provider.WeatherClient, city string, now func() time.Time) Builder {
	return weatherCardFrom(func(lang i18n.Language) WeatherSource { return client.WithLanguage(lang) }, city, now)
}

func weatherCardFrom(forLang func(i18n.Language) WeatherSource, city string, now func() time.Time) Builder {
	return func(ctx context.Context, lang i18n.Language) (CardPayload, error) {
		w, err := forLang(lang).ByCity(ctx, city)
		if err != nil {
			return CardPayload{}, err
		}
		return CardPayload{
			Name:      CardWeather,
			Language:  lang,
			Title:     i18n.TLang(lang, i18n.MsgCardWeather),
			Weather:   &w,
			UpdatedAt: now(),
		}, nil
	}
}

var tipCards = []struct {
	name  string
	title string
	tips  []string
}{
	{CardSoil, i18n.MsgSoilTitle, []string{i18n.MsgSoilTipPH, i18n.MsgSoilTipOrganic, i18n.MsgSoilTipTest}},
	{CardPest, i18n.MsgPestTitle, []string{i18n.MsgPestTipScout, i18n.MsgPestTipNeem, i18n.MsgPestTipRotate}},
	{CardMarket, i18n.MsgMarketTitle, []string{i18n.MsgMarketTipCompare, i18n.MsgMarketTipGrade, i18n.MsgMarketTipStorage}},
}
