package jobqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType(t *testing.T) {
	assert.Equal(t, "object_delete", string(JobTypeObjectDelete))
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{"Pending", JobStatusPending, "pending"},
		{"Processing", JobStatusProcessing, "processing"},
		{"Completed", JobStatusCompleted, "completed"},
		{"Failed", JobStatusFailed, "failed"},
		{"Retrying", JobStatusRetrying, "retrying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestJobUnmarshalPayload(t *testing.T) {
	job := &Job{
		Type: JobTypeObjectDelete,
		Payload: map[string]interface{}{
			"object_key": "artworks/2026/03/abc.png",
		},
	}

	var payload ObjectDeleteJobPayload
	require.NoError(t, job.UnmarshalPayload(&payload))
	assert.Equal(t, "artworks/2026/03/abc.png", payload.ObjectKey)
}

func TestJobUnmarshalPayload_InvalidData(t *testing.T) {
	job := &Job{
		Payload: map[string]interface{}{
			"object_key": make(chan int), // channels can't be marshaled to JSON
		},
	}

	var payload ObjectDeleteJobPayload
	assert.Error(t, job.UnmarshalPayload(&payload))
}

func TestJobJSONSerialization(t *testing.T) {
	now := time.Now()
	processedAt := now.Add(time.Minute)

	job := &Job{
		ID:          "job-123",
		Type:        JobTypeObjectDelete,
		Status:      JobStatusCompleted,
		Payload:     map[string]interface{}{"object_key": "a/b.jpg"},
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Second),
		ProcessedAt: &processedAt,
		RetryCount:  1,
		MaxRetries:  3,
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	var result Job
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, job.ID, result.ID)
	assert.Equal(t, job.Type, result.Type)
	assert.Equal(t, job.Status, result.Status)
	assert.Equal(t, job.Payload, result.Payload)
	assert.Equal(t, job.RetryCount, result.RetryCount)
	assert.Equal(t, job.MaxRetries, result.MaxRetries)
	assert.NotNil(t, result.ProcessedAt)
}
