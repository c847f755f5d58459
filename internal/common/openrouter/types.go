// Package openrouter is a single-provider chat completion client for the
// OpenRouter API with bounded retries, streaming and an optional cache.
package openrouter

import (
	"time"

	"pedagoplay/internal/common/config"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamSink receives each streamed content delta in arrival order.
type StreamSink func(delta string)

// Request carries the messages of one turn and optional per-call overrides.
// Nil fields fall back to the client Config.
type Request struct {
	Messages    []Message
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Stream      *bool
	OnDelta     StreamSink
}

// Config holds the client defaults.
type Config struct {
	URL         string
	Model       string
	Temperature float64
	TopP        *float64
	MaxTokens   *int
	Stream      bool
	Timeout     time.Duration
	Retries     int
	Backoff     time.Duration
	AppName     string
}

func DefaultConfig() Config {
	return Config{
		URL:         config.DefaultOpenRouterURL,
		Model:       config.DefaultModel,
		Temperature: 0.7,
		Timeout:     120 * time.Second,
		Retries:     2,
		Backoff:     time.Second,
	}
}

// ConfigFromAppConfig maps the openrouter config section onto Config.
func ConfigFromAppConfig(c config.OpenRouterConfig) Config {
	cfg := DefaultConfig()
	if c.BaseURL != "" {
		cfg.URL = c.BaseURL
	}
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.Temperature != 0 {
		cfg.Temperature = c.Temperature
	}
	cfg.TopP = c.TopP
	cfg.MaxTokens = c.MaxTokens
	cfg.Stream = c.Stream
	if c.Timeout > 0 {
		cfg.Timeout = time.Duration(c.Timeout) * time.Millisecond
	}
	cfg.Retries = c.RetriesOrDefault()
	if c.Backoff > 0 {
		cfg.Backoff = time.Duration(c.Backoff) * time.Millisecond
	}
	cfg.AppName = c.AppName
	return cfg
}

// wire types

type chatPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
