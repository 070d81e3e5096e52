package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionSweep clears idle edit sessions ahead of their absolute TTL.
	TaskSessionSweep = "session:sweep"
	// TaskCatalogWarmup refreshes and pre-warms the product picker cache.
	TaskCatalogWarmup = "catalog:warmup"
)

// SessionSweepPayload carries scheduling metadata for a sweep run.
type SessionSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Limit        int       `json:"limit,omitempty"`
}

// NewSessionSweepTask constructs an Asynq task for the idle session sweeper.
func NewSessionSweepTask(at time.Time, limit int) (*asynq.Task, error) {
	body, err := json.Marshal(SessionSweepPayload{ScheduledFor: at, Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, body, asynq.Queue(QueueDefault)), nil
}

// CatalogWarmupPayload carries scheduling metadata for a warmup run.
type CatalogWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewCatalogWarmupTask constructs an Asynq task for the catalog warmup.
func NewCatalogWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(CatalogWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, body, asynq.Queue(QueueDefault)), nil
}
