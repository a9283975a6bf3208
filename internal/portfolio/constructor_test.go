package portfolio

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/internal/s3_correlation"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// twoGroupPanel has two groups of three stocks with zero cross-group correlation
// and an older day block that the window drops
func twoGroupPanel() *contracts.Panel {
	return &contracts.Panel{
		Tickers: []string{
			"BRIX", "ALFA", "BOLT", "ARGO", "BETA", "AMBR", // 버려지는 과거 블록
			"ARGO", "BETA", "ALFA", "BRIX", "AMBR", "BOLT",
			"BOLT", "AMBR", "BRIX", "ALFA", "ARGO", "BETA",
			"ALFA", "AMBR", "ARGO", "BETA", "BOLT", "BRIX",
		},
		Values: []float64{
			-100, 50, 7, 0, 33, -8,
			10, 1, 1, 5, 2, 3,
			-3, 4, 3, 2, 11, -2,
			3, 6, 12, 1, 3, 5,
		},
	}
}

func newTestConstructor() *Constructor {
	return NewConstructor(s3_correlation.NewEngine(1), logger.NewNop())
}

func TestConstruct_TwoGroups(t *testing.T) {
	params := contracts.DefaultConstructParams()
	params.NBestPerforming = 2

	result, err := newTestConstructor().Construct(context.Background(), twoGroupPanel(), params)
	require.NoError(t, err)

	require.Equal(t, 2, result.Count())
	assert.Equal(t, 0, result.Portfolios[0].CommunityIndex)
	assert.Equal(t, "AMBR, ARGO", result.Portfolios[0].Community)
	assert.Equal(t, 1, result.Portfolios[1].CommunityIndex)
	assert.Equal(t, "BOLT, BRIX", result.Portfolios[1].Community)

	assert.Equal(t, 6, result.NumStocks)
	assert.Equal(t, 2, result.NumCommunities)
	assert.InDelta(t, 0.7, result.Quality, 1e-9)
	assert.InDelta(t, 0.7, result.Modularity, 1e-9)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"AMBR", "ARGO", "BOLT", "BRIX"}, result.SelectedTickers())
}

func TestConstruct_Variants(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *contracts.ConstructParams)
	}{
		{"spearman", func(p *contracts.ConstructParams) { p.CorrelationMeasure = contracts.MeasureSpearman }},
		{"spearmanr alias", func(p *contracts.ConstructParams) { p.CorrelationMeasure = "spearmanr" }},
		{"resolution 1.0", func(p *contracts.ConstructParams) { p.ResolutionParameter = 1.0 }},
		{"cpm", func(p *contracts.ConstructParams) { p.QualityFunction = contracts.QualityCPM }},
		{"single round", func(p *contracts.ConstructParams) { p.NumberOfIterations = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := contracts.DefaultConstructParams()
			params.NBestPerforming = 2
			tt.modify(&params)

			result, err := newTestConstructor().Construct(context.Background(), twoGroupPanel(), params)
			require.NoError(t, err)

			require.Len(t, result.Portfolios, 2)
			assert.Equal(t, "AMBR, ARGO", result.Portfolios[0].Community)
			assert.Equal(t, "BOLT, BRIX", result.Portfolios[1].Community)
		})
	}
}

func TestConstruct_ZeroIterationsGivesSingletons(t *testing.T) {
	params := contracts.DefaultConstructParams()
	params.NumberOfIterations = 0

	result, err := newTestConstructor().Construct(context.Background(), twoGroupPanel(), params)
	require.NoError(t, err)

	require.Len(t, result.Portfolios, 6)
	for i, p := range result.Portfolios {
		assert.Equal(t, i, p.CommunityIndex)
		assert.Len(t, p.Tickers, 1)
	}
	assert.Equal(t, "ALFA", result.Portfolios[0].Community)
}

func TestConstruct_EveryStockInExactlyOneRecord(t *testing.T) {
	params := contracts.DefaultConstructParams()
	params.NBestPerforming = 10

	result, err := newTestConstructor().Construct(context.Background(), twoGroupPanel(), params)
	require.NoError(t, err)

	seen := map[string]int{}
	total := 0
	for _, p := range result.Portfolios {
		total += p.Size
		for _, ticker := range p.Tickers {
			seen[ticker]++
		}
	}
	assert.Equal(t, 6, total)
	assert.Len(t, seen, 6)
	for ticker, n := range seen {
		assert.Equal(t, 1, n, ticker)
	}
}

func TestConstruct_Errors(t *testing.T) {
	tests := []struct {
		name    string
		panel   *contracts.Panel
		modify  func(p *contracts.ConstructParams)
		wantErr error
	}{
		{
			name:    "window too short",
			panel:   twoGroupPanel(),
			modify:  func(p *contracts.ConstructParams) { p.NTradingDaysBack = 2 },
			wantErr: contracts.ErrInvalidWindow,
		},
		{
			name:    "unknown measure",
			panel:   twoGroupPanel(),
			modify:  func(p *contracts.ConstructParams) { p.CorrelationMeasure = "kendall" },
			wantErr: contracts.ErrInvalidMeasure,
		},
		{
			name:    "nil panel",
			panel:   nil,
			modify:  func(p *contracts.ConstructParams) {},
			wantErr: contracts.ErrInsufficientData,
		},
		{
			name:    "window exceeds data",
			panel:   twoGroupPanel(),
			modify:  func(p *contracts.ConstructParams) { p.NTradingDaysBack = 5 },
			wantErr: contracts.ErrWindowExceedsData,
		},
		{
			name: "duplicate ticker in a day block",
			panel: &contracts.Panel{
				Tickers: []string{"A", "B", "A", "A", "B", "B", "A", "B"},
				Values:  []float64{1, 2, 3, 4, 5, 6, 7, 8},
			},
			modify:  func(p *contracts.ConstructParams) {},
			wantErr: contracts.ErrDayBlockMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := contracts.DefaultConstructParams()
			tt.modify(&params)

			result, err := newTestConstructor().Construct(context.Background(), tt.panel, params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result, "no partial output on error")
		})
	}
}

func TestConstruct_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestConstructor().Construct(ctx, twoGroupPanel(), contracts.DefaultConstructParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConstruct_DeterministicAndConcurrent(t *testing.T) {
	constructor := NewConstructor(s3_correlation.NewEngine(4).WithParallelThreshold(2), logger.NewNop())
	params := contracts.DefaultConstructParams()
	params.NBestPerforming = 2

	first, err := constructor.Construct(context.Background(), twoGroupPanel(), params)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*contracts.ConstructResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = constructor.Construct(context.Background(), twoGroupPanel(), params)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, first.Portfolios, results[i].Portfolios)
		assert.NotEqual(t, first.RunID, results[i].RunID)
	}
}
