package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/picme-app/picme/internal/pkg/cache"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "job:"
	JobQueueKey      = "job_queue"
	JobProcessingKey = "job_processing"

	// Job settings
	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour // Jobs expire after 24 hours
)

// Processor handles one job type.
type Processor func(ctx context.Context, job *Job) error

// Queue manages background jobs using Redis
type Queue struct {
	client     *redis.Client
	workers    int
	processors map[JobType]Processor
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewQueue creates a new job queue
func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}

	return &Queue{
		client:     cache.GetClient(),
		workers:    workers,
		processors: make(map[JobType]Processor),
		stopCh:     make(chan struct{}),
	}
}

// RegisterProcessor binds a handler to a job type. Must be called before Start.
func (q *Queue) RegisterProcessor(t JobType, p Processor) {
	q.processors[t] = p
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the job queue workers
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

// Enqueue stores a new job and pushes it onto the pending list.
func (q *Queue) Enqueue(t JobType, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(data, &payloadMap); err != nil {
		return "", fmt.Errorf("failed to convert payload: %w", err)
	}

	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		Type:       t,
		Status:     JobStatusPending,
		Payload:    payloadMap,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}

	ctx := context.Background()
	if err := q.updateJob(ctx, job); err != nil {
		return "", err
	}
	if err := q.client.RPush(ctx, JobQueueKey, job.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job.ID, nil
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[JobQueue] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[JobQueue] Worker %d stopping", id)
			return
		default:
			job, err := q.dequeueJob(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Errorf("[JobQueue] Worker %d: Error dequeuing job: %v", id, err)
				}
				time.Sleep(time.Second)
				continue
			}
			if job != nil {
				q.processJob(ctx, job)
			}
		}
	}
}

// dequeueJob moves the next pending job id to the processing list and loads it.
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	id, err := q.client.LMove(ctx, JobQueueKey, JobProcessingKey, "LEFT", "RIGHT").Result()
	if err != nil {
		return nil, err
	}

	data, err := q.client.Get(ctx, JobKeyPrefix+id).Result()
	if err != nil {
		// Job data expired or missing; drop the stray processing entry
		_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}

	now := time.Now()
	job.Status = JobStatusProcessing
	job.ProcessedAt = &now
	job.UpdatedAt = now
	if err := q.updateJob(ctx, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

// processJob runs the registered processor and handles retries.
func (q *Queue) processJob(ctx context.Context, job *Job) {
	defer func() {
		_ = q.client.LRem(ctx, JobProcessingKey, 1, job.ID).Err()
	}()

	processor, ok := q.processors[job.Type]
	if !ok {
		log.Errorf("[JobQueue] No processor for job type %s, dropping job %s", job.Type, job.ID)
		job.Status = JobStatusFailed
		job.ErrorMsg = "no processor registered"
		job.UpdatedAt = time.Now()
		_ = q.updateJob(ctx, job)
		return
	}

	err := processor(ctx, job)
	now := time.Now()
	job.UpdatedAt = now

	if err == nil {
		job.Status = JobStatusCompleted
		job.CompletedAt = &now
		job.ErrorMsg = ""
		_ = q.updateJob(ctx, job)
		return
	}

	job.RetryCount++
	job.ErrorMsg = err.Error()
	if job.RetryCount >= job.MaxRetries {
		log.Errorf("[JobQueue] Job %s (type=%s) failed permanently: %v", job.ID, job.Type, err)
		job.Status = JobStatusFailed
		_ = q.updateJob(ctx, job)
		return
	}

	log.Warnf("[JobQueue] Job %s (type=%s) failed, retry %d/%d: %v", job.ID, job.Type, job.RetryCount, job.MaxRetries, err)
	job.Status = JobStatusRetrying
	_ = q.updateJob(ctx, job)
	_ = q.client.RPush(ctx, JobQueueKey, job.ID).Err()
}

func (q *Queue) updateJob(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	return q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err()
}
