// Package queue carries broadcast jobs to the external dispatch worker.
// Jobs are fire-and-forget: the state machine enqueues after commit and
// never waits for the worker.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job is the payload handed to the broadcast worker.
type Job struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
}

// RedisBroadcastQueue pushes jobs onto a redis list consumed by the
// broadcast worker.
type RedisBroadcastQueue struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisBroadcastQueue creates a queue over the given client and list key.
func NewRedisBroadcastQueue(client *redis.Client, key string, logger *slog.Logger) *RedisBroadcastQueue {
	return &RedisBroadcastQueue{client: client, key: key, logger: logger}
}

// Enqueue pushes one job. Failures are returned to the caller for logging
// only; the withdrawal's transition has already committed.
func (q *RedisBroadcastQueue) Enqueue(ctx context.Context, withdrawalID uuid.UUID) error {
	payload, err := json.Marshal(Job{WithdrawalID: withdrawalID})
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return err
	}
	q.logger.Debug("broadcast job enqueued", "withdrawal_id", withdrawalID, "queue", q.key)
	return nil
}

// Dequeue blocks until a job is available or the context is canceled. The
// broadcast worker side of the queue uses it.
func (q *RedisBroadcastQueue) Dequeue(ctx context.Context) (*Job, error) {
	res, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
