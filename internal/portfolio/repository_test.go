package portfolio

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
	"github.com/wonny/clusterfolio/pkg/redis"
)

func newMemoryRepository() *Repository {
	return NewRepository(redis.NewCache(redis.Disabled(), "test"), 0, logger.NewNop())
}

func TestRepository_LatestEmpty(t *testing.T) {
	result, found, err := newMemoryRepository().Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestRepository_SaveAndLatest(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()

	first := &contracts.ConstructResult{RunID: "run-1"}
	second := &contracts.ConstructResult{RunID: "run-2"}
	require.NoError(t, repo.SaveLatest(ctx, first))
	require.NoError(t, repo.SaveLatest(ctx, second))

	latest, found, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "run-2", latest.RunID)

	byID, found, err := repo.ByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, second, byID)

	byID, found, err = repo.ByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, found, "earlier runs stay addressable by id")
	assert.Same(t, first, byID)

	_, found, err = repo.ByRunID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepository_SaveRun(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRun(ctx, &contracts.ConstructResult{RunID: "api-1"}))

	_, found, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, found, "SaveRun must not replace the latest result")

	run, found, err := repo.ByRunID(ctx, "api-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "api-1", run.RunID)

	assert.Error(t, repo.SaveRun(ctx, nil))
}

func TestRepository_RecentRunsBounded(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()

	for i := 0; i < maxRecentRuns+5; i++ {
		require.NoError(t, repo.SaveRun(ctx, &contracts.ConstructResult{RunID: fmt.Sprintf("run-%d", i)}))
	}
	// 같은 ID 재저장은 순서를 늘리지 않음
	require.NoError(t, repo.SaveRun(ctx, &contracts.ConstructResult{RunID: "run-10"}))

	assert.Len(t, repo.runs, maxRecentRuns)
	assert.Len(t, repo.order, maxRecentRuns)

	_, found, _ := repo.ByRunID(ctx, "run-0")
	assert.False(t, found, "oldest runs are evicted")
	_, found, _ = repo.ByRunID(ctx, fmt.Sprintf("run-%d", maxRecentRuns+4))
	assert.True(t, found)
}

func TestRepository_SaveNil(t *testing.T) {
	assert.Error(t, newMemoryRepository().SaveLatest(context.Background(), nil))
}

func TestRepository_DefaultTTL(t *testing.T) {
	assert.Equal(t, redis.TTLDaily, newMemoryRepository().ttl)
}

func TestRepository_ClearLatest(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveLatest(ctx, &contracts.ConstructResult{RunID: "run-1"}))
	require.NoError(t, repo.ClearLatest(ctx))

	_, found, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}
