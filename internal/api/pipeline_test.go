package api

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedagoplay/internal/common/cache"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/markup"
	"pedagoplay/internal/common/openrouter"
	planactivities "pedagoplay/internal/workers/activities/plan-activities"
)

// ==========================
// Pipeline Fixture
// ==========================

type pipeline struct {
	handler   http.Handler
	upstream  *atomic.Int32
	status    *atomic.Int32
	cacheKeys func() []string
}

func newPipeline(t *testing.T) *pipeline {
	var calls, status atomic.Int32
	status.Store(http.StatusOK)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			fmt.Fprint(w, `{"error":{"message":"upstream down"}}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"**Indoor fort**\n\n1. Paint\n2. Dance"}}]}`)
	}))
	t.Cleanup(upstream.Close)

	mr := miniredis.RunT(t)
	rc := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	cfg := openrouter.DefaultConfig()
	cfg.URL = upstream.URL
	cfg.Timeout = 5 * time.Second

	log := logger.NewTestLogger(t)
	client := openrouter.NewClient(cfg, openrouter.StaticCredentials("sk-test"),
		openrouter.WithFormatter(markup.NewHTMLFormatter()),
		openrouter.WithCache(cache.NewCompletionCache(rc, time.Hour)),
		openrouter.WithSleeper(func(context.Context, time.Duration) error { return nil }),
		openrouter.WithLogger(log),
	)

	service := planactivities.NewService(planactivities.ServiceDependencies{
		Logger:    log,
		Completer: client,
		Fallback:  planactivities.NewFallbackGenerator(rand.New(rand.NewSource(7))),
	}, planactivities.DefaultConfig())

	server := NewServer(Options{
		Planner: service,
		Logger:  log,
		Checks:  map[string]Check{"redis": rc.Ping},
	})

	return &pipeline{
		handler:   server.Handler(),
		upstream:  &calls,
		status:    &status,
		cacheKeys: mr.Keys,
	}
}

// ==========================
// End-to-end Flows
// ==========================

func TestPipeline_ModelReplyIsFormattedAndCached(t *testing.T) {
	p := newPipeline(t)

	first := postActivities(t, p.handler, validBody, nil)
	second := postActivities(t, p.handler, validBody, nil)

	for _, rec := range []*httptest.ResponseRecorder{first, second} {
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "model", rec.Header().Get("X-Activity-Source"))

		body := decodeBody(t, rec)
		activities, _ := body["activities"].(string)
		assert.Equal(t, true, body["success"])
		assert.Contains(t, activities, "<p><strong>Indoor fort</strong></p>")
		assert.Contains(t, activities, "Paint\nDance")
		assert.NotContains(t, activities, "<li>")
		assert.NotContains(t, activities, "<ol>")
	}

	assert.Equal(t, int32(1), p.upstream.Load())
	assert.Len(t, p.cacheKeys(), 1)
}

func TestPipeline_UpstreamFailureFallsBack(t *testing.T) {
	p := newPipeline(t)
	p.status.Store(http.StatusInternalServerError)

	rec := postActivities(t, p.handler, validBody, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Header().Get("X-Activity-Source"))

	body := decodeBody(t, rec)
	activities, _ := body["activities"].(string)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["error"])
	assert.Contains(t, activities, "Fun Activities for 2 children")
	assert.Contains(t, activities, "💡 **Tips:**")

	assert.Equal(t, int32(3), p.upstream.Load())
	assert.Empty(t, p.cacheKeys())
}

func TestPipeline_InvalidRequestSkipsUpstream(t *testing.T) {
	p := newPipeline(t)

	rec := postActivities(t, p.handler, `{"num_children":2,"weather":"rainy"}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, p.upstream.Load())
}

func TestPipeline_ReadyWithRedis(t *testing.T) {
	p := newPipeline(t)

	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}
