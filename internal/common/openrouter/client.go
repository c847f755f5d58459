package openrouter

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pedagoplay/internal/common/errors"
	httpkit "pedagoplay/internal/common/http"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/markup"
	"pedagoplay/internal/common/metrics"
)

// Doer is the subset of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Cache stores formatted completions by request hash.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Client struct {
	cfg       Config
	apiKey    string
	credErr   error
	http      Doer
	formatter markup.Formatter
	logger    logger.Logger
	sleep     Sleeper
	cache     Cache
	tracer    trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithFormatter sets the post-processor; nil leaves text untouched.
func WithFormatter(f markup.Formatter) Option {
	return func(c *Client) { c.formatter = f }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient resolves the credential once; a missing key surfaces on every
// Complete call rather than here.
func NewClient(cfg Config, creds CredentialProvider, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Retries < 0 {
		cfg.Retries = def.Retries
	}

	c := &Client{
		cfg:    cfg,
		http:   httpkit.NewClient(0),
		logger: logger.NewNoOpLogger(),
		sleep:  sleepContext,
		tracer: otel.Tracer("pedagoplay/openrouter"),
	}
	if creds == nil {
		creds = EnvCredentials{}
	}
	c.apiKey, c.credErr = creds.APIKey()

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete runs one chat completion turn and returns the formatted text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openrouter.complete")
	defer span.End()

	text, err := c.complete(ctx, req, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	}
	return text, err
}

func (c *Client) complete(ctx context.Context, req Request, span trace.Span) (string, error) {
	if c.credErr != nil {
		return "", errors.NewMissingCredentialError(c.credErr.Error())
	}
	if c.apiKey == "" {
		return "", errors.NewMissingCredentialError("")
	}

	payload := c.buildPayload(req)
	span.SetAttributes(
		attribute.String("openrouter.model", payload.Model),
		attribute.Bool("openrouter.stream", payload.Stream),
	)

	var key string
	if c.cache != nil && !payload.Stream {
		key = cacheKey(payload)
		if text, ok := c.cacheGet(ctx, key); ok {
			span.SetAttributes(attribute.Bool("openrouter.cache_hit", true))
			return text, nil
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewUnexpectedFormatError("request encoding", err)
	}

	if key == "" {
		return c.fetch(ctx, body, payload.Stream, req.OnDelta)
	}

	text, err := c.fetch(ctx, body, false, nil)
	if err != nil {
		return "", err
	}
	c.cacheSet(ctx, key, text)
	return text, nil
}

func (c *Client) fetch(ctx context.Context, body []byte, stream bool, sink StreamSink) (string, error) {
	raw, err := c.doWithRetry(ctx, body, stream, sink)
	if err != nil {
		return "", err
	}
	if c.formatter == nil {
		return raw, nil
	}
	text, err := c.formatter.Format(raw)
	if err != nil {
		return "", errors.NewFormatError(err)
	}
	return text, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte, stream bool, sink StreamSink) (string, error) {
	attempts := c.cfg.Retries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.cfg.Backoff * time.Duration(1<<(attempt-1))
			metrics.CompletionRetries.Inc()
			c.logger.Warn("Retrying completion request", map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
				"error":   lastErr,
			})
			if err := c.sleep(ctx, delay); err != nil {
				return "", errors.NewTransportFailureError(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return "", errors.NewTransportFailureError(err)
		}

		text, err := c.attempt(ctx, body, stream, sink)
		if err == nil {
			metrics.CompletionAttempts.WithLabelValues("success").Inc()
			return text, nil
		}
		metrics.CompletionAttempts.WithLabelValues(strings.ToLower(string(KindOf(err)))).Inc()

		se := errors.Normalize(err)
		if !se.Retryable {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}

	return "", errors.NewExhaustedRetriesError(attempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, body []byte, stream bool, sink StreamSink) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", errors.NewTransportFailureError(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.AppName != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.AppName)
		httpReq.Header.Set("X-Title", c.cfg.AppName)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.NewTransportFailureError(err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewHTTPError(resp.StatusCode, httpkit.ErrorDetail(resp.Body))
	}

	if stream {
		return readStream(resp.Body, sink)
	}
	return readBuffered(resp.Body)
}

func (c *Client) buildPayload(req Request) chatPayload {
	p := chatPayload{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: c.cfg.Temperature,
		Stream:      c.cfg.Stream,
		MaxTokens:   c.cfg.MaxTokens,
		TopP:        c.cfg.TopP,
	}
	if req.Model != "" {
		p.Model = req.Model
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.Stream != nil {
		p.Stream = *req.Stream
	}
	if req.MaxTokens != nil {
		p.MaxTokens = req.MaxTokens
	}
	if req.TopP != nil {
		p.TopP = req.TopP
	}
	return p
}

func (c *Client) cacheGet(ctx context.Context, key string) (string, bool) {
	text, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CompletionCache.WithLabelValues("error").Inc()
		c.logger.Warn("Completion cache read failed", map[string]interface{}{"error": err})
		return "", false
	case ok:
		metrics.CompletionCache.WithLabelValues("hit").Inc()
		return text, true
	default:
		metrics.CompletionCache.WithLabelValues("miss").Inc()
		return "", false
	}
}

func (c *Client) cacheSet(ctx context.Context, key, text string) {
	if err := c.cache.Set(ctx, key, text); err != nil {
		metrics.CompletionCache.WithLabelValues("error").Inc()
		c.logger.Warn("Completion cache write failed", map[string]interface{}{"error": err})
	}
}

// cacheKey identifies a completion by everything that shapes its output.
func cacheKey(p chatPayload) string {
	keyDoc := struct {
		Model       string    `json:"model"`
		Temperature float64   `json:"temperature"`
		TopP        *float64  `json:"top_p,omitempty"`
		MaxTokens   *int      `json:"max_tokens,omitempty"`
		Messages    []Message `json:"messages"`
	}{p.Model, p.Temperature, p.TopP, p.MaxTokens, p.Messages}

	raw, _ := json.Marshal(keyDoc)
	sum := sha256.Sum256(raw)
	return "completion:" + hex.EncodeToString(sum[:])
}

// KindOf returns the error code of a Complete failure.
func KindOf(err error) errors.ErrorCode {
	return errors.CodeOf(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
