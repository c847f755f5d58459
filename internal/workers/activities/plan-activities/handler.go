package planactivities

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"pedagoplay/internal/common/camunda"
	"pedagoplay/internal/common/config"
	"pedagoplay/internal/common/errors"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/metrics"
	"pedagoplay/internal/common/observability"
)

const TaskType = "plan-activities"

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	service      *Service
	errorHandler *errors.ErrorHandler
	jobWorker    worker.JobWorker
}

// HandlerOptions wires the handler. Service is shared with the HTTP API when
// set; otherwise one is built around Completer.
type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Logger        logger.Logger
	Service       *Service
	Completer     Completer
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for plan-activities: %w", err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	service := opts.Service
	if service == nil {
		service = NewService(ServiceDependencies{
			Logger:        loggerInstance,
			Completer:     opts.Completer,
			Observability: opts.Observability,
		}, workerConfig)
	}

	return &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		service:      service,
		errorHandler: errors.NewErrorHandler(loggerInstance),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing activity planning job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	result := h.Execute(ctx, input)
	h.completeJob(ctx, client, job, result)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return DecodeInput(variables)
}

// jobVariables maps a result onto the process variables set on completion.
func jobVariables(result *PlanningResult) map[string]interface{} {
	vars := map[string]interface{}{
		"activities": result.Output.Activities,
		"success":    result.Output.Success,
		"error":      nil,
		"source":     string(result.Source),
		"requestId":  result.RequestID,
	}
	if result.Output.Error != nil {
		vars["error"] = *result.Output.Error
	}
	return vars
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, result *PlanningResult) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(jobVariables(result))
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	send := func(ctx context.Context) error {
		_, err := request.Send(ctx)
		return err
	}
	if h.camunda != nil {
		err = h.camunda.ExecuteWithRetry(ctx, "complete-job", send)
	} else {
		err = send(ctx)
	}

	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	h.logger.Info("Activity planning job completed", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"source":    string(result.Source),
		"success":   result.Output.Success,
		"requestId": result.RequestID,
		"worker":    TaskType,
	})
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", map[string]interface{}{
			"worker": TaskType,
		})
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("camunda client is required to register %s", TaskType)
	}

	jobWorker, err := camunda.OpenWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h.Handle)
	if err != nil {
		return err
	}
	h.jobWorker = jobWorker

	h.logger.Info("Activity planning worker registered with Camunda", map[string]interface{}{
		"taskType":      TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
	})
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", map[string]interface{}{
			"worker": TaskType,
		})
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return nil
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

// Execute runs one planning turn directly, bypassing Zeebe.
func (h *Handler) Execute(ctx context.Context, input *Input) *PlanningResult {
	return h.service.Execute(ctx, input)
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		workerCfg := config.GetWorkerConfig(appConfig, TaskType)
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
		cfg.FallbackSeed = appConfig.Fallback.Seed
	}

	return cfg
}
