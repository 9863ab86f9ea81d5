package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPrune removes expired login session records.
	TaskSessionsPrune = "sessions:prune"
)

// SessionsPrunePayload describes one prune run.
type SessionsPrunePayload struct {
	// GraceMinutes keeps records that expired less than this many minutes ago.
	GraceMinutes int `json:"grace_minutes"`
}

// NewSessionsPruneTask builds a prune task.
func NewSessionsPruneTask(graceMinutes int) (*asynq.Task, error) {
	body, err := json.Marshal(SessionsPrunePayload{GraceMinutes: graceMinutes})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPrune, body, asynq.Queue(QueueDefault)), nil
}
