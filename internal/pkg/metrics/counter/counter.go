package counter

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/picme-app/picme/internal/pkg/cache"
	"github.com/picme-app/picme/internal/pkg/database"
)

const postViewsKey = "post:counters:views"

// AddPostView increments the pending view counter for a post in Redis
func AddPostView(postID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(postID), 10)
	return cache.GetClient().HIncrBy(ctx, postViewsKey, field, 1).Err()
}

// Flush writes all pending post view counters to the database and subtracts
// the written amounts from Redis.
func Flush() error {
	db := database.GetDB()
	return flush(cache.GetClient(), func(id uint64, delta int64) error {
		return db.Exec("UPDATE posts SET view_count = view_count + ? WHERE id = ?", delta, id).Error
	})
}

func flush(client *redis.Client, write func(id uint64, delta int64) error) error {
	ctx := context.Background()

	counts, err := client.HGetAll(ctx, postViewsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read pending counters: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	for field, raw := range counts {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			log.Warnf("[Counter] Dropping invalid counter field %q", field)
			_ = client.HDel(ctx, postViewsKey, field).Err()
			continue
		}
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta <= 0 {
			_ = client.HDel(ctx, postViewsKey, field).Err()
			continue
		}

		if err := write(id, delta); err != nil {
			// keep the counter for the next flush
			log.Errorf("[Counter] Failed to flush %d views for post %d: %v", delta, id, err)
			continue
		}
		// Subtract only what was written. Views counted while the row update
		// was in flight stay pending instead of being deleted with the field.
		if err := client.HIncrBy(ctx, postViewsKey, field, -delta).Err(); err != nil {
			log.Errorf("[Counter] Failed to clear flushed counter for post %d: %v", id, err)
		}
	}

	return nil
}

var (
	flushStop chan struct{}
	flushWG   sync.WaitGroup
	flushMu   sync.Mutex
)

// StartFlusher flushes pending counters on the given interval until
// StopFlusher is called.
func StartFlusher(interval time.Duration) {
	flushMu.Lock()
	defer flushMu.Unlock()

	if flushStop != nil {
		return
	}
	flushStop = make(chan struct{})

	flushWG.Add(1)
	go func() {
		defer flushWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-flushStop:
				if err := Flush(); err != nil {
					log.Errorf("[Counter] Final flush failed: %v", err)
				}
				return
			case <-ticker.C:
				if err := Flush(); err != nil {
					log.Errorf("[Counter] Flush failed: %v", err)
				}
			}
		}
	}()
}

// StopFlusher stops the background flusher after one final flush.
func StopFlusher() {
	flushMu.Lock()
	defer flushMu.Unlock()

	if flushStop == nil {
		return
	}
	close(flushStop)
	flushWG.Wait()
	flushStop = nil
}
