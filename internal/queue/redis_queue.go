package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueue is a Redis list-backed job queue with at-least-once delivery.
// Publish pushes to the head; workers block-pop from the tail. A message
// whose handler fails is re-enqueued with an incremented attempt counter
// until maxAttempts, then dropped with an error log.
type RedisQueue struct {
	rdb         *redis.Client
	key         string
	maxAttempts int
	logger      *zap.Logger
}

func NewRedisQueue(rdb *redis.Client, key string, maxAttempts int, logger *zap.Logger) *RedisQueue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RedisQueue{
		rdb:         rdb,
		key:         key,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg EvaluationMessage) error {
	if msg.EnqueuedAt == "" {
		msg.EnqueuedAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, payload).Err()
}

// Pop blocks up to timeout for the next message. It returns redis.Nil-backed
// errors as (zero, false, nil) so worker loops can poll quietly.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (EvaluationMessage, bool, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return EvaluationMessage{}, false, nil
		}
		return EvaluationMessage{}, false, err
	}
	// BRPop returns [key, value].
	if len(res) < 2 {
		return EvaluationMessage{}, false, nil
	}
	msg, err := DecodeMessage([]byte(res[1]))
	if err != nil {
		q.logger.Error("Dropping undecodable queue message", zap.String("payload", res[1]), zap.Error(err))
		return EvaluationMessage{}, false, nil
	}
	return msg, true, nil
}

// Retry re-enqueues a failed message, or drops it once the attempt limit is
// reached.
func (q *RedisQueue) Retry(ctx context.Context, msg EvaluationMessage) error {
	msg.Attempt++
	if msg.Attempt >= q.maxAttempts {
		q.logger.Error("Evaluation job exhausted retries, dropping",
			zap.String("sessionId", msg.SessionID),
			zap.String("requestId", msg.RequestID),
			zap.Int("attempts", msg.Attempt))
		return nil
	}
	q.logger.Warn("Re-enqueuing failed evaluation job",
		zap.String("sessionId", msg.SessionID),
		zap.Int("attempt", msg.Attempt))
	return q.Publish(ctx, msg)
}

// Depth reports the current queue length.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
