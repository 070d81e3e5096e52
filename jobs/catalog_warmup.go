package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orderbench/orderbench/internal/catalog"
	jobmetrics "github.com/orderbench/orderbench/internal/jobs"
)

// CatalogWarmupJob bumps the catalog cache version and pre-warms the first
// page of the product picker so the next shopper gets a warm hit.
type CatalogWarmupJob struct {
	Catalog *catalog.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCatalogWarmupJob wires dependencies for the warmup handler.
func NewCatalogWarmupJob(svc *catalog.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogWarmupJob {
	return &CatalogWarmupJob{Catalog: svc, Logger: logger, Metrics: metrics}
}

// Handle processes catalog warmup tasks.
func (j *CatalogWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog warmup: handler not configured")
	}
	var payload CatalogWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCatalogWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()

	// Invalidate first so the warm fetch goes to the upstream, not the
	// still-live previous cache entry.
	if err := j.Catalog.Invalidate(ctx); err != nil {
		resultErr = err
		logger.Error("bump catalog cache version", slog.Any("error", err))
		return resultErr
	}
	if err := j.Catalog.WarmFirstPage(ctx); err != nil {
		resultErr = err
		logger.Error("warm catalog first page", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed catalog warmup", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *CatalogWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCatalogWarmup))
}

func (j *CatalogWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
