// Package queue publishes examine jobs for the external review worker.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExamineJob is the message consumed by the review worker.
type ExamineJob struct {
	JobID        string    `json:"job_id"`
	WithdrawalID int64     `json:"withdrawal_id"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

func newExamineJob(withdrawalID int64) ([]byte, ExamineJob, error) {
	job := ExamineJob{
		JobID:        uuid.NewString(),
		WithdrawalID: withdrawalID,
		EnqueuedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	return payload, job, err
}
