// Package jobs runs the background maintenance tasks of the grant store:
// a nightly integrity scan for orphaned grants and a retention sweep that
// purges tombstoned grants past the retention horizon.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGrantIntegrityScan flags active grants whose subject no longer exists.
	TaskGrantIntegrityScan = "grants:integrity_scan"
	// TaskGrantTombstoneSweep purges revoked grants past retention.
	TaskGrantTombstoneSweep = "grants:tombstone_sweep"
)

// TombstoneSweepPayload parameterizes one sweep run.
type TombstoneSweepPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewGrantIntegrityScanTask constructs an integrity scan task.
func NewGrantIntegrityScanTask() *asynq.Task {
	return asynq.NewTask(TaskGrantIntegrityScan, nil)
}

// NewGrantTombstoneSweepTask constructs a sweep task.
func NewGrantTombstoneSweepTask(payload TombstoneSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGrantTombstoneSweep, data), nil
}
