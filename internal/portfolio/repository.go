package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
	"github.com/wonny/clusterfolio/pkg/redis"
)

// maxRecentRuns 메모리에 보관하는 실행 결과 수 (Redis 는 TTL 로 관리)
const maxRecentRuns = 32

// Repository keeps the most recent scheduled result and recent runs for the API
// ⭐ SSOT: 최신 결과 캐시 저장/조회는 여기서만
//
// 영속 저장이 아니라 캐시: 메모리 사본 + Redis (TTL)
// Redis 가 꺼져 있거나 실패해도 메모리 사본으로 응답
type Repository struct {
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger

	mu     sync.RWMutex
	latest *contracts.ConstructResult
	runs   map[string]*contracts.ConstructResult
	order  []string // 오래된 실행 먼저
}

var _ contracts.ResultStore = (*Repository)(nil)

// NewRepository creates a new result repository
func NewRepository(cache *redis.Cache, ttl time.Duration, logger *logger.Logger) *Repository {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &Repository{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		runs:   make(map[string]*contracts.ConstructResult),
	}
}

// SaveLatest stores result as the latest one (실행 ID 조회도 가능)
func (r *Repository) SaveLatest(ctx context.Context, result *contracts.ConstructResult) error {
	if result == nil {
		return fmt.Errorf("nil construct result")
	}

	r.mu.Lock()
	r.latest = result
	r.mu.Unlock()

	if err := r.cache.Set(ctx, redis.LatestResultKey(), result, r.ttl); err != nil {
		return fmt.Errorf("cache latest result: %w", err)
	}
	return r.SaveRun(ctx, result)
}

// SaveRun stores result under its run id without touching latest
func (r *Repository) SaveRun(ctx context.Context, result *contracts.ConstructResult) error {
	if result == nil {
		return fmt.Errorf("nil construct result")
	}

	r.mu.Lock()
	if _, exists := r.runs[result.RunID]; !exists {
		r.order = append(r.order, result.RunID)
	}
	r.runs[result.RunID] = result
	for len(r.order) > maxRecentRuns {
		delete(r.runs, r.order[0])
		r.order = r.order[1:]
	}
	r.mu.Unlock()

	if err := r.cache.Set(ctx, redis.ResultKey(result.RunID), result, r.ttl); err != nil {
		return fmt.Errorf("cache result %s: %w", result.RunID, err)
	}
	return nil
}

// Latest returns the most recent result, preferring the shared cache
func (r *Repository) Latest(ctx context.Context) (*contracts.ConstructResult, bool, error) {
	var cached contracts.ConstructResult
	found, err := r.cache.Get(ctx, redis.LatestResultKey(), &cached)
	if err != nil {
		r.logger.WithError(err).Warn("Latest result cache read failed, using memory copy")
	}
	if found {
		return &cached, true, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, false, nil
	}
	return r.latest, true, nil
}

// ByRunID returns the result of runID from the shared cache or recent memory
func (r *Repository) ByRunID(ctx context.Context, runID string) (*contracts.ConstructResult, bool, error) {
	var cached contracts.ConstructResult
	found, err := r.cache.Get(ctx, redis.ResultKey(runID), &cached)
	if err != nil {
		r.logger.WithError(err).Warn("Run result cache read failed, using memory copy")
	}
	if found {
		return &cached, true, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.runs[runID]
	return result, ok, nil
}

// ClearLatest forgets the latest result (메모리 + Redis)
// 실행 ID 별 캐시는 TTL 로 만료
func (r *Repository) ClearLatest(ctx context.Context) error {
	r.mu.Lock()
	r.latest = nil
	r.mu.Unlock()

	if err := r.cache.Delete(ctx, redis.LatestResultKey()); err != nil {
		return fmt.Errorf("delete cached latest result: %w", err)
	}
	return nil
}
