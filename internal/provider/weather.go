package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/metrics"
	"KrishiMitra/internal/refetch"
)

var (
	ErrNotFound = errors.New("weather: location not found")
	ErrTimeout  = errors.New("weather: request timed out")
)

// Weather is the current conditions for one location, in metric units.
type Weather struct {
	City        string    `json:"city"`
	Country     string    `json:"country,omitempty"`
	Temp        float64   `json:"temp"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	WindSpeed   float64   `json:"windSpeed"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	Language    string    `json:"language"`
	Summary     string    `json:"summary"`
}

type WeatherConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// WeatherClient reads an OpenWeatherMap-compatible current weather API.
type WeatherClient struct {
	cfg  WeatherConfig
	http *refetch.LanguageAwareClient
}

func NewWeatherClient(cfg WeatherConfig, source refetch.LanguageSource) *WeatherClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WeatherClient{
		cfg:  cfg,
		http: refetch.NewLanguageAwareClient(source, &http.Client{Timeout: cfg.Timeout}),
	}
}

func (c *WeatherClient) WithLanguage(lang i18n.Language) *WeatherClient {
	return &WeatherClient{cfg: c.cfg, http: c.http.WithLanguage(lang)}
}

func (c *WeatherClient) Configured() bool {
	return c.cfg.URL != "" && c.cfg.APIKey != ""
}

func (c *WeatherClient) ByCity(ctx context.Context, city string) (Weather, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Weather{}, ErrNotFound
	}
	return c.fetch(ctx, url.Values{"q": {city}})
}

func (c *WeatherClient) ByCoords(ctx context.Context, lat, lon float64) (Weather, error) {
	return c.fetch(ctx, url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', 4, 64)},
	})
}

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

func (c *WeatherClient) fetch(ctx context.Context, params url.Values) (Weather, error) {
	if !c.Configured() {
		return Weather{}, fmt.Errorf("weather: not configured: %w", ErrUnavailable)
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return Weather{}, fmt.Errorf("weather: bad url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	lang := c.http.Language()
	resp, err := c.http.Get(ctx, u.String())
	if err != nil {
		if isTimeout(err) {
			metrics.ProviderRequests.WithLabelValues("weather", "timeout").Inc()
			return Weather{}, ErrTimeout
		}
		metrics.ProviderRequests.WithLabelValues("weather", "error").Inc()
		return Weather{}, fmt.Errorf("weather: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		metrics.ProviderRequests.WithLabelValues("weather", "not_found").Inc()
		return Weather{}, ErrNotFound
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		metrics.ProviderRequests.WithLabelValues("weather", "timeout").Inc()
		return Weather{}, ErrTimeout
	default:
		metrics.ProviderRequests.WithLabelValues("weather", "error").Inc()
		return Weather{}, fmt.Errorf("weather: status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var raw owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metrics.ProviderRequests.WithLabelValues("weather", "error").Inc()
		return Weather{}, fmt.Errorf("weather: decode: %w", err)
	}

	w := Weather{
		City:      raw.Name,
		Country:   raw.Sys.Country,
		Temp:      raw.Main.Temp,
		FeelsLike: raw.Main.FeelsLike,
		Humidity:  raw.Main.Humidity,
		Pressure:  raw.Main.Pressure,
		WindSpeed: raw.Wind.Speed,
		Sunrise:   time.Unix(raw.Sys.Sunrise, 0).UTC(),
		Sunset:    time.Unix(raw.Sys.Sunset, 0).UTC(),
		Language:  string(lang),
	}
	if len(raw.Weather) > 0 {
		w.Condition = raw.Weather[0].Main
		w.Description = raw.Weather[0].Description
		w.Icon = raw.Weather[0].Icon
	}
	w.Summary = i18n.TLang(lang, i18n.MsgWeatherSummary, map[string]interface{}{
		"City":     w.City,
		"Temp":     strconv.FormatFloat(w.Temp, 'f', 1, 64),
		"Humidity": w.Humidity,
	})

	metrics.ProviderRequests.WithLabelValues("weather", "ok").Inc()
	logger.Provider.Debug().Str("city", w.City).Str("lang", string(lang)).Msg("weather fetched")
	return w, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
