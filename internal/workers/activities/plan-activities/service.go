package planactivities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pedagoplay/internal/common/errors"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/metrics"
	"pedagoplay/internal/common/observability"
	"pedagoplay/internal/common/openrouter"
)

type requestIDKey struct{}

// WithRequestID makes Execute reuse an id assigned by an inbound surface.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Service runs one planning turn: prompt, completion, local fallback.
type Service struct {
	config    *Config
	logger    logger.Logger
	completer Completer
	fallback  *FallbackGenerator
	obs       *observability.Observability
	tracer    trace.Tracer
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	fallback := deps.Fallback
	if fallback == nil {
		fallback = NewFallbackGenerator(seededRand(config.FallbackSeed))
	}

	return &Service{
		config:    config,
		logger:    log,
		completer: deps.Completer,
		fallback:  fallback,
		obs:       deps.Observability,
		tracer:    deps.Observability.Tracer("pedagoplay/planner"),
	}
}

// Execute always returns a result; Success is false only when the local
// fallback itself fails.
func (s *Service) Execute(ctx context.Context, input *Input) (result *PlanningResult) {
	start := time.Now()
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := s.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"worker":    TaskType,
	})

	ctx, span := s.tracer.Start(ctx, "planner.execute",
		trace.WithAttributes(attribute.String("planner.request_id", requestID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Planning turn panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			result = failedResult(requestID, fmt.Errorf("%v", r))
		}
		span.SetAttributes(attribute.String("planner.source", string(result.Source)))
		elapsed := time.Since(start)
		metrics.PlanningResults.WithLabelValues(string(result.Source)).Inc()
		metrics.PlanningDuration.WithLabelValues(string(result.Source)).Observe(elapsed.Seconds())
		s.obs.RecordPlan(ctx, elapsed, string(result.Source))
	}()

	var completionErr error
	if input != nil && s.completer != nil {
		text, err := s.completer.Complete(ctx, openrouter.Request{Messages: BuildMessages(input)})
		if err == nil && strings.TrimSpace(text) != "" {
			log.Info("Activities generated by model", map[string]interface{}{
				"numChildren": input.NumChildren,
				"durationMs":  time.Since(start).Milliseconds(),
			})
			return &PlanningResult{
				Output:    Output{Activities: text, Success: true},
				Source:    SourceModel,
				RequestID: requestID,
			}
		}

		completionErr = err
		code := "EMPTY_COMPLETION"
		if err != nil {
			code = string(errors.CodeOf(err))
		}
		log.Warn("Completion unavailable, using local activities", map[string]interface{}{
			"errorCode": code,
			"error":     err,
		})
	}

	text, err := s.fallback.Generate(input)
	if err != nil {
		stdErr := errors.NewFallbackFailedError(err)
		log.Error("Local activity generation failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		span.RecordError(stdErr)
		res := failedResult(requestID, err)
		res.CompletionErr = completionErr
		return res
	}

	return &PlanningResult{
		Output:        Output{Activities: text, Success: true},
		Source:        SourceFallback,
		RequestID:     requestID,
		CompletionErr: completionErr,
	}
}

func failedResult(requestID string, err error) *PlanningResult {
	msg := fmt.Sprintf("Server error: %v", err)
	return &PlanningResult{
		Output:    Output{Activities: "", Success: false, Error: &msg},
		Source:    SourceFailed,
		RequestID: requestID,
	}
}
