package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orderbench/orderbench/internal/editing"
	jobmetrics "github.com/orderbench/orderbench/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// defaultSweepLimit bounds how many sessions one sweep run will reclaim.
const defaultSweepLimit = 200

// SessionSweepJob reclaims edit sessions that sat idle past the cutoff.
type SessionSweepJob struct {
	Store   *editing.Store
	Cutoff  time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionSweepJob wires dependencies for the sweep handler.
func NewSessionSweepJob(store *editing.Store, cutoff time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionSweepJob {
	return &SessionSweepJob{
		Store:   store,
		Cutoff:  cutoff,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes session sweep tasks.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("session sweep: handler not configured")
	}
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = defaultSweepLimit
	}

	tracker := j.metrics().Track(TaskSessionSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Duration("cutoff", j.Cutoff))
	start := j.now()

	ids, err := j.Store.IdleSessions(ctx, j.Cutoff, limit)
	if err != nil {
		resultErr = err
		logger.Error("scan idle sessions", slog.Any("error", err))
		return resultErr
	}
	if len(ids) == 0 {
		logger.Info("no idle sessions to sweep")
		return resultErr
	}

	swept := 0
	for _, id := range ids {
		if err := j.Store.Delete(ctx, id); err != nil {
			resultErr = err
			logger.Error("delete idle session", slog.String("session_id", id), slog.Any("error", err))
			return resultErr
		}
		swept++
	}
	j.metrics().AddSweptSessions(swept)

	logger.Info("completed session sweep", slog.Int("swept", swept), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *SessionSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionSweep))
	}
	return slog.Default().With(slog.String("job", TaskSessionSweep))
}

func (j *SessionSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SessionSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
