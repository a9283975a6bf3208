package quality

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/clusterfolio/internal/contracts"
)

func TestEvaluate(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name         string
		snapshot     Snapshot
		wantPassed   bool
		wantCoverage float64
	}{
		{"complete window", Snapshot{RequestedDays: 20, FoundDays: 20, TotalStocks: 100, CompleteStocks: 95}, true, 0.95},
		{"missing days", Snapshot{RequestedDays: 20, FoundDays: 19, TotalStocks: 100, CompleteStocks: 100}, false, 1},
		{"too few complete stocks", Snapshot{RequestedDays: 3, FoundDays: 3, TotalStocks: 1, CompleteStocks: 1}, false, 1},
		{"today partially loaded", Snapshot{RequestedDays: 20, FoundDays: 20, TotalStocks: 2500, CompleteStocks: 300}, false, 0.12},
		{"empty table", Snapshot{RequestedDays: 3}, false, 0},
		{"exact threshold", Snapshot{RequestedDays: 3, FoundDays: 3, TotalStocks: 10, CompleteStocks: 8}, true, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.snapshot
			Evaluate(&s, cfg)

			assert.Equal(t, tt.wantPassed, s.Passed)
			assert.InDelta(t, tt.wantCoverage, s.Coverage, 1e-12)
			if tt.wantPassed {
				assert.Empty(t, s.Reason)
			} else {
				assert.NotEmpty(t, s.Reason)
			}
		})
	}
}

func TestEvaluate_LatestSession(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	full := Snapshot{RequestedDays: 3, FoundDays: 3, TotalStocks: 10, CompleteStocks: 10}

	// 월요일 가격 미적재: 창이 금요일까지 밀려도 커버리지는 100%
	stale := full
	stale.LatestDate = friday
	stale.ExpectedDate = monday
	Evaluate(&stale, DefaultConfig())
	assert.False(t, stale.Passed)
	assert.Equal(t, 1.0, stale.Coverage)
	assert.Contains(t, stale.Reason, "latest trading day 2024-03-01, expected 2024-03-04")

	fresh := full
	fresh.LatestDate = monday
	fresh.ExpectedDate = monday
	Evaluate(&fresh, DefaultConfig())
	assert.True(t, fresh.Passed, fresh.Reason)

	relaxed := DefaultConfig()
	relaxed.RequireLatestSession = false
	stale.Passed = false
	Evaluate(&stale, relaxed)
	assert.True(t, stale.Passed)
}

func TestExpectedSession(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tests := []struct {
		name   string
		before time.Time
		want   string
	}{
		{"tuesday midnight cutoff", time.Date(2024, 3, 5, 0, 0, 0, 0, seoul), "2024-03-04"},
		{"saturday midnight cutoff", time.Date(2024, 3, 9, 0, 0, 0, 0, seoul), "2024-03-08"},
		{"monday midnight cutoff skips weekend", time.Date(2024, 3, 4, 0, 0, 0, 0, seoul), "2024-03-01"},
		{"intraday cutoff includes today", time.Date(2024, 3, 5, 10, 0, 0, 0, seoul), "2024-03-05"},
		{"sunday intraday", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), "2024-03-08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedSession(tt.before).Format("2006-01-02"))
		})
	}
}

func TestGate_Check(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	gate := NewGate(pool, DefaultConfig())
	snapshot, err := gate.Check(ctx, contracts.PanelQuery{
		Before: time.Now(),
		Days:   3,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, snapshot.FoundDays, 3)
	assert.LessOrEqual(t, snapshot.CompleteStocks, snapshot.TotalStocks)
	assert.GreaterOrEqual(t, snapshot.Coverage, 0.0)
	assert.LessOrEqual(t, snapshot.Coverage, 1.0)
}
