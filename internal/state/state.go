package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"libfaq/crawler/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RunSummary describes the last finished run of one snapshot kind.
type RunSummary struct {
	RunID            string              `json:"run_id"`
	Kind             domain.SnapshotKind `json:"kind"`
	StartedAt        time.Time           `json:"started_at"`
	FinishedAt       time.Time           `json:"finished_at"`
	Items            int                 `json:"items"`
	Failed           int                 `json:"failed"`
	SkippedOffDomain int                 `json:"skipped_off_domain"`
	Truncated        int                 `json:"truncated"`
}

type StateManager interface {
	GetLastRun(ctx context.Context, kind domain.SnapshotKind) (*RunSummary, error)
	SetLastRun(ctx context.Context, summary RunSummary) error
}

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "crawler:run:",
	}
}

func (s *redisStateManager) GetLastRun(ctx context.Context, kind domain.SnapshotKind) (*RunSummary, error) {
	key := s.keyPrefix + kind.String()
	val, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No run recorded yet
		}
		return nil, fmt.Errorf("failed to get last run for %s: %w", kind, err)
	}

	var summary RunSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse last run for %s: %w", kind, err)
	}

	return &summary, nil
}

func (s *redisStateManager) SetLastRun(ctx context.Context, summary RunSummary) error {
	key := s.keyPrefix + summary.Kind.String()
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	if err := s.redisClient.Set(ctx, key, data, 0).Err(); err != nil { // No expiration
		return fmt.Errorf("failed to set last run for %s: %w", summary.Kind, err)
	}
	return nil
}

// memoryStateManager keeps summaries for the lifetime of the process. It is
// used when redis is disabled.
type memoryStateManager struct {
	mutex sync.Mutex
	runs  map[domain.SnapshotKind]RunSummary
}

func NewMemoryStateManager() StateManager {
	return &memoryStateManager{runs: make(map[domain.SnapshotKind]RunSummary)}
}

func (s *memoryStateManager) GetLastRun(_ context.Context, kind domain.SnapshotKind) (*RunSummary, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	summary, ok := s.runs[kind]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

func (s *memoryStateManager) SetLastRun(_ context.Context, summary RunSummary) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.runs[summary.Kind] = summary
	return nil
}
