package planactivities

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"pedagoplay/internal/common/errors"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/observability"
	"pedagoplay/internal/common/openrouter"
)

// ==========================
// Mock Completer
// ==========================

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req openrouter.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type panickingCompleter struct{}

func (panickingCompleter) Complete(context.Context, openrouter.Request) (string, error) {
	panic("connection pool exhausted")
}

// ==========================
// Test Helpers
// ==========================

func newTestService(t *testing.T, completer Completer) *Service {
	return NewService(ServiceDependencies{
		Logger:    logger.NewTestLogger(t),
		Completer: completer,
		Fallback:  NewFallbackGenerator(rand.New(rand.NewSource(1))),
	}, DefaultConfig())
}

func rainyTwins() *Input {
	return &Input{NumChildren: 2, Ages: []int{4, 5}, Weather: "rainy", Location: "Yverdon-les-Bains"}
}

// ==========================
// Model Path
// ==========================

func TestService_Execute_ModelText(t *testing.T) {
	completer := new(MockCompleter)
	input := rainyTwins()
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(req openrouter.Request) bool {
		return len(req.Messages) == 2 && req.Messages[1].Content == BuildMessages(input)[1].Content
	})).Return("<p><strong>Indoor fort</strong></p>", nil)

	result := newTestService(t, completer).Execute(context.Background(), input)

	assert.Equal(t, SourceModel, result.Source)
	assert.True(t, result.Output.Success)
	assert.Nil(t, result.Output.Error)
	assert.Equal(t, "<p><strong>Indoor fort</strong></p>", result.Output.Activities)
	assert.NotEmpty(t, result.RequestID)
	assert.NoError(t, result.CompletionErr)
	completer.AssertExpectations(t)
}

// ==========================
// Fallback Path
// ==========================

func TestService_Execute_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		err      error
		wantCode errors.ErrorCode
	}{
		{
			name:     "exhausted retries",
			err:      errors.NewExhaustedRetriesError(3, errors.NewHTTPError(502, "bad gateway")),
			wantCode: errors.ErrCodeExhaustedRetries,
		},
		{
			name:     "missing credential",
			err:      errors.NewMissingCredentialError(""),
			wantCode: errors.ErrCodeMissingCredential,
		},
		{
			name: "blank completion",
			text: "  \n\t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := new(MockCompleter)
			completer.On("Complete", mock.Anything, mock.Anything).Return(tt.text, tt.err)

			result := newTestService(t, completer).Execute(context.Background(), rainyTwins())

			assert.Equal(t, SourceFallback, result.Source)
			assert.True(t, result.Output.Success)
			assert.Nil(t, result.Output.Error)
			assert.Contains(t, result.Output.Activities, "Fun Activities for 2 children")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errors.CodeOf(result.CompletionErr))
			} else {
				assert.NoError(t, result.CompletionErr)
			}
		})
	}
}

func TestService_Execute_NoCompleter(t *testing.T) {
	result := newTestService(t, nil).Execute(context.Background(), rainyTwins())
	assert.Equal(t, SourceFallback, result.Source)
	assert.True(t, result.Output.Success)
}

// ==========================
// Failure Path
// ==========================

func TestService_Execute_NilInput(t *testing.T) {
	completer := new(MockCompleter)
	result := newTestService(t, completer).Execute(context.Background(), nil)

	assert.Equal(t, SourceFailed, result.Source)
	assert.False(t, result.Output.Success)
	assert.Empty(t, result.Output.Activities)
	require.NotNil(t, result.Output.Error)
	assert.Equal(t, "Server error: planning request is nil", *result.Output.Error)
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestService_Execute_RecoversFromPanic(t *testing.T) {
	result := newTestService(t, panickingCompleter{}).Execute(context.Background(), rainyTwins())

	assert.Equal(t, SourceFailed, result.Source)
	assert.False(t, result.Output.Success)
	require.NotNil(t, result.Output.Error)
	assert.Equal(t, "Server error: connection pool exhausted", *result.Output.Error)
}

// ==========================
// Tracing
// ==========================

func TestService_Execute_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp, err := observability.NewTracerProvider(observability.TracingOptions{
		ServiceName: "pedagoplay-test",
		Processors:  []sdktrace.SpanProcessor{recorder},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", fmt.Errorf("dial tcp: refused"))

	newTestService(t, completer).Execute(context.Background(), rainyTwins())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "planner.execute", spans[0].Name())

	var source string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "planner.source" {
			source = kv.Value.AsString()
		}
	}
	assert.Equal(t, "fallback", source)
}

func TestService_Execute_ReusesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	result := newTestService(t, nil).Execute(ctx, rainyTwins())
	assert.Equal(t, "req-123", result.RequestID)
}
