package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeObjectDelete removes an object from S3 after its artwork is gone
	JobTypeObjectDelete JobType = "object_delete"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// ObjectDeleteJobPayload contains the payload for storage cleanup jobs
type ObjectDeleteJobPayload struct {
	ObjectKey string `json:"object_key"`
}

// UnmarshalPayload decodes the generic payload map into a typed struct.
func (j *Job) UnmarshalPayload(v interface{}) error {
	data, err := json.Marshal(j.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
