package refetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"KrishiMitra/internal/i18n"
)

// LanguageSource yields the language to attach to outgoing requests.
type LanguageSource interface {
	Language() i18n.Language
}

// FixedLanguage is a LanguageSource that never changes.
type FixedLanguage i18n.Language

func (f FixedLanguage) Language() i18n.Language { return i18n.Language(f) }

// LanguageAwareClient tags every request with the active language as the
// lang query parameter and the Accept-Language and X-Language headers.
type LanguageAwareClient struct {
	source LanguageSource
	client *http.Client
}

// NewLanguageAwareClient wraps hc, or a client with a 15s timeout when hc
// is nil.
func NewLanguageAwareClient(source LanguageSource, hc *http.Client) *LanguageAwareClient {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &LanguageAwareClient{source: source, client: hc}
}

// WithLanguage returns a client sharing the transport but pinned to lang.
func (c *LanguageAwareClient) WithLanguage(lang i18n.Language) *LanguageAwareClient {
	return &LanguageAwareClient{source: FixedLanguage(lang), client: c.client}
}

func (c *LanguageAwareClient) Language() i18n.Language {
	return c.source.Language()
}

// NewRequest builds a request already tagged with the language.
func (c *LanguageAwareClient) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	c.tag(req)
	return req, nil
}

// Do tags req and sends it.
func (c *LanguageAwareClient) Do(req *http.Request) (*http.Response, error) {
	c.tag(req)
	return c.client.Do(req)
}

func (c *LanguageAwareClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

func (c *LanguageAwareClient) tag(req *http.Request) {
	lang := string(c.source.Language())
	q := req.URL.Query()
	q.Set("lang", lang)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept-Language", lang)
	req.Header.Set("X-Language", lang)
}
