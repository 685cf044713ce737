package provider

import (
	"context"
	"net/http"
	"sync"
	"time"

	"KrishiMitra/internal/logger"
)

// Endpoint is a named upstream to check.
type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProbeResult holds the outcome of one reachability check.
type ProbeResult struct {
	Name      string        `json:"name"`
	URL       string        `json:"url"`
	Reachable bool          `json:"reachable"`
	Status    int           `json:"status,omitempty"`
	Latency   time.Duration `json:"latencyNs"`
	Error     string        `json:"error,omitempty"`
}

// DefaultProbeTimeout bounds each HEAD request.
const DefaultProbeTimeout = 5 * time.Second

// Probe checks all endpoints in parallel with HEAD requests and returns the
// results in input order. Any HTTP answer below 500 counts as reachable,
// since API roots commonly reject HEAD with 404 or 405.
func Probe(ctx context.Context, endpoints []Endpoint) []ProbeResult {
	results := make([]ProbeResult, len(endpoints))
	var wg sync.WaitGroup

	for i, ep := range endpoints {
		wg.Add(1)
		go func(idx int, ep Endpoint) {
			defer wg.Done()
			results[idx] = probeOne(ctx, ep, DefaultProbeTimeout)
		}(i, ep)
	}

	wg.Wait()
	return results
}

func probeOne(ctx context.Context, ep Endpoint, timeout time.Duration) ProbeResult {
	res := ProbeResult{Name: ep.Name, URL: ep.URL}
	if ep.URL == "" {
		res.Error = "not configured"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ep.URL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp.Body.Close()

	res.Latency = time.Since(start)
	res.Status = resp.StatusCode
	res.Reachable = resp.StatusCode < 500
	return res
}

// Prober caches probe results so the health endpoint does not hit the
// upstreams on every request.
type Prober struct {
	endpoints []Endpoint
	cacheDur  time.Duration

	mu       sync.RWMutex
	cached   []ProbeResult
	cachedAt time.Time
}

func NewProber(endpoints []Endpoint, cacheDuration time.Duration) *Prober {
	return &Prober{endpoints: endpoints, cacheDur: cacheDuration}
}

// Check returns cached results while they are fresh, probing otherwise.
func (p *Prober) Check(ctx context.Context) []ProbeResult {
	p.mu.RLock()
	if p.cached != nil && time.Since(p.cachedAt) < p.cacheDur {
		out := append([]ProbeResult(nil), p.cached...)
		p.mu.RUnlock()
		return out
	}
	p.mu.RUnlock()

	results := Probe(ctx, p.endpoints)
	for _, r := range results {
		if !r.Reachable {
			logger.Provider.Warn().Str("endpoint", r.Name).Str("error", r.Error).Int("status", r.Status).Msg("provider unreachable")
		}
	}

	p.mu.Lock()
	p.cached = results
	p.cachedAt = time.Now()
	p.mu.Unlock()

	return append([]ProbeResult(nil), results...)
}

// InvalidateCache forces the next Check to probe.
func (p *Prober) InvalidateCache() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}
