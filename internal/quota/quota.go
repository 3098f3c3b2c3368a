package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"intervai/internal/models"
)

// Service enforces the per-user daily interview allowance. The check runs
// before a session is created; the increment after.
type Service interface {
	Check(ctx context.Context, userID string) error
	Increment(ctx context.Context, userID string) error
}

// RedisService counts sessions per user per UTC day in Redis.
type RedisService struct {
	rdb        *redis.Client
	dailyLimit int
}

func NewRedisService(rdb *redis.Client, dailyLimit int) *RedisService {
	return &RedisService{rdb: rdb, dailyLimit: dailyLimit}
}

func (s *RedisService) key(userID string) string {
	return fmt.Sprintf("intervai:quota:interviews:%s:%s", userID, time.Now().UTC().Format("2006-01-02"))
}

// Check returns ErrQuotaExceeded once the user has reached the daily limit.
func (s *RedisService) Check(ctx context.Context, userID string) error {
	if s.dailyLimit <= 0 {
		return nil
	}
	used, err := s.rdb.Get(ctx, s.key(userID)).Int()
	if err != nil && err != redis.Nil {
		return err
	}
	if used >= s.dailyLimit {
		return models.ErrQuotaExceeded
	}
	return nil
}

// Increment records one started session against today's allowance.
func (s *RedisService) Increment(ctx context.Context, userID string) error {
	key := s.key(userID)
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
