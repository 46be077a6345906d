package jobqueue

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/picme-app/picme/internal/pkg/storage"
)

var (
	globalQueue *Queue
	globalMu    sync.Mutex
)

// Initialize builds the global queue and registers the storage cleanup
// processor. A nil uploader disables the queue (no storage configured).
func Initialize(uploader storage.Uploader, workers int) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if uploader == nil || globalQueue != nil {
		return
	}

	q := NewQueue(workers)
	q.RegisterProcessor(JobTypeObjectDelete, func(ctx context.Context, job *Job) error {
		var payload ObjectDeleteJobPayload
		if err := job.UnmarshalPayload(&payload); err != nil {
			return err
		}
		return uploader.Delete(ctx, payload.ObjectKey)
	})
	q.Start()

	globalQueue = q
}

// Shutdown stops the global queue workers.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalQueue != nil {
		globalQueue.Stop()
		globalQueue = nil
	}
}

// EnqueueObjectDelete schedules an S3 object removal. Returns false when the
// queue is not running, callers should then delete inline.
func EnqueueObjectDelete(objectKey string) bool {
	globalMu.Lock()
	q := globalQueue
	globalMu.Unlock()

	if q == nil || objectKey == "" {
		return false
	}
	if _, err := q.Enqueue(JobTypeObjectDelete, ObjectDeleteJobPayload{ObjectKey: objectKey}); err != nil {
		log.Warnf("[JobQueue] Failed to enqueue object delete for %s: %v", objectKey, err)
		return false
	}
	return true
}
