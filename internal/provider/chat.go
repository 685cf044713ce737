// Package provider holds the thin clients for the external services the
// dashboard talks to: the chat advisor, the weather service and the
// reachability probe used by the health endpoint. Every outbound request
// goes through refetch.LanguageAwareClient so the provider sees the active
// language.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/logger"
	"KrishiMitra/internal/metrics"
	"KrishiMitra/internal/refetch"
)

// ErrUnavailable is returned when the provider answered with something the
// client cannot use.
var ErrUnavailable = errors.New("provider unavailable")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Completion is the advisor's answer. Fallback is set when the text is the
// localized "try again" message rather than a real answer.
type Completion struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations,omitempty"`
	Language  string   `json:"language"`
	Fallback  bool     `json:"fallback,omitempty"`
}

type ChatConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	cfg  ChatConfig
	http *refetch.LanguageAwareClient
}

func NewChatClient(cfg ChatConfig, source refetch.LanguageSource) *ChatClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChatClient{
		cfg:  cfg,
		http: refetch.NewLanguageAwareClient(source, &http.Client{Timeout: cfg.Timeout}),
	}
}

// WithLanguage returns a client that answers in lang regardless of the
// source it was built with.
func (c *ChatClient) WithLanguage(lang i18n.Language) *ChatClient {
	return &ChatClient{cfg: c.cfg, http: c.http.WithLanguage(lang)}
}

func (c *ChatClient) Configured() bool {
	return c.cfg.URL != "" && c.cfg.APIKey != ""
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Complete sends messages to the advisor. A system prompt asking for an
// answer in the active language is prepended unless the caller supplied
// one. Transport failures, rate limiting and exhausted quota produce a
// fallback completion instead of an error.
func (c *ChatClient) Complete(ctx context.Context, messages []Message) (Completion, error) {
	lang := c.http.Language()
	if len(messages) == 0 {
		return Completion{}, fmt.Errorf("chat: no messages")
	}
	if !c.Configured() {
		logger.Provider.Warn().Str("provider", "chat").Msg("chat provider not configured")
		return c.fallback(lang, "unconfigured"), nil
	}

	if messages[0].Role != "system" {
		prompt := i18n.TLang(lang, i18n.MsgChatSystemPrompt, map[string]interface{}{"Language": i18n.Name(lang)})
		messages = append([]Message{{Role: "system", Content: prompt}}, messages...)
	}

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return Completion{}, fmt.Errorf("chat: encode request: %w", err)
	}
	req, err := c.http.NewRequest(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Provider.Warn().Err(err).Str("provider", "chat").Msg("chat request failed")
		return c.fallback(lang, "transport"), nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		logger.Provider.Warn().Str("provider", "chat").Msg("chat rate limited")
		return c.fallback(lang, "rate_limited"), nil
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden:
		logger.Provider.Warn().Int("status", resp.StatusCode).Str("provider", "chat").Msg("chat quota exhausted")
		return c.fallback(lang, "quota"), nil
	case resp.StatusCode >= 500:
		logger.Provider.Warn().Int("status", resp.StatusCode).Str("provider", "chat").Msg("chat upstream error")
		return c.fallback(lang, "upstream"), nil
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.ProviderRequests.WithLabelValues("chat", "error").Inc()
		return Completion{}, fmt.Errorf("chat: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(snippet)), ErrUnavailable)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ProviderRequests.WithLabelValues("chat", "error").Inc()
		return Completion{}, fmt.Errorf("chat: decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		metrics.ProviderRequests.WithLabelValues("chat", "error").Inc()
		return Completion{}, fmt.Errorf("chat: empty answer: %w", ErrUnavailable)
	}

	metrics.ProviderRequests.WithLabelValues("chat", "ok").Inc()
	return Completion{
		Text:      out.Choices[0].Message.Content,
		Citations: out.Citations,
		Language:  string(lang),
	}, nil
}

func (c *ChatClient) fallback(lang i18n.Language, reason string) Completion {
	metrics.ProviderRequests.WithLabelValues("chat", "fallback").Inc()
	logger.Provider.Debug().Str("reason", reason).Str("lang", string(lang)).Msg("chat fallback")
	return Completion{
		Text:     i18n.TLang(lang, i18n.MsgChatFallback),
		Language: string(lang),
		Fallback: true,
	}
}
