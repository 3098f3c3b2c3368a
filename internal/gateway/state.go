package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnState is the per-connection state tracked across events. Audio bytes
// stay in-process on the Client; only the metadata lives in the Store so a
// multi-instance deployment can inspect live connections.
type ConnState struct {
	UserID     string `json:"userId"`
	SessionID  string `json:"sessionId,omitempty"`
	ChunkCount int    `json:"chunkCount"`
}

// ErrStateNotFound reports a connection id with no stored state.
var ErrStateNotFound = errors.New("connection state not found")

// Store keeps connection state keyed by connection id.
type Store interface {
	Set(ctx context.Context, connID string, state ConnState) error
	Get(ctx context.Context, connID string) (ConnState, error)
	Delete(ctx context.Context, connID string) error
}

// MemoryStore is the single-node implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]ConnState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]ConnState)}
}

func (s *MemoryStore) Set(_ context.Context, connID string, state ConnState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[connID] = state
	return nil
}

func (s *MemoryStore) Get(_ context.Context, connID string) (ConnState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[connID]
	if !ok {
		return ConnState{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStore) Delete(_ context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, connID)
	return nil
}

// RedisStore externalizes connection state for multi-instance deployments.
// Entries expire on their own in case a crash skips the Delete.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: 2 * time.Hour}
}

func (s *RedisStore) key(connID string) string {
	return fmt.Sprintf("intervai:gateway:conn:%s", connID)
}

func (s *RedisStore) Set(ctx context.Context, connID string, state ConnState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(connID), data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, connID string) (ConnState, error) {
	data, err := s.rdb.Get(ctx, s.key(connID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ConnState{}, ErrStateNotFound
		}
		return ConnState{}, err
	}
	var state ConnState
	if err := json.Unmarshal(data, &state); err != nil {
		return ConnState{}, err
	}
	return state, nil
}

func (s *RedisStore) Delete(ctx context.Context, connID string) error {
	return s.rdb.Del(ctx, s.key(connID)).Err()
}
