package s3_correlation

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/clusterfolio/internal/contracts"
)

func alignedOf(rows [][]float64) *contracts.AlignedPanel {
	tickers := make([]string, len(rows))
	data := make([]float64, 0, len(rows)*len(rows[0]))
	for i, row := range rows {
		tickers[i] = string(rune('A' + i))
		data = append(data, row...)
	}
	return &contracts.AlignedPanel{
		Tickers: contracts.NewTickerSet(tickers),
		Values:  mat.NewDense(len(rows), len(rows[0]), data),
	}
}

func randomPanel(rng *rand.Rand, stocks, days int) *contracts.AlignedPanel {
	rows := make([][]float64, stocks)
	for i := range rows {
		rows[i] = make([]float64, days)
		for d := range rows[i] {
			rows[i][d] = rng.NormFloat64()
		}
	}
	return alignedOf(rows)
}

func TestCompute_PearsonMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	panel := randomPanel(rng, 8, 12)

	corr, err := NewEngine(1).Compute(context.Background(), panel, contracts.MeasurePearson)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if i == j {
				assert.Equal(t, 0.0, corr.At(i, j))
				continue
			}
			want := math.Abs(stat.Correlation(panel.Row(i), panel.Row(j), nil))
			assert.InDelta(t, want, corr.At(i, j), 1e-12, "corr[%d][%d]", i, j)
		}
	}
}

func TestCompute_MatrixInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, measure := range []contracts.CorrelationMeasure{contracts.MeasurePearson, contracts.MeasureSpearman} {
		t.Run(string(measure), func(t *testing.T) {
			for trial := 0; trial < 20; trial++ {
				panel := randomPanel(rng, 2+rng.Intn(10), 3+rng.Intn(10))
				corr, err := NewEngine(1).Compute(context.Background(), panel, measure)
				require.NoError(t, err)

				n, _ := corr.Dims()
				for i := 0; i < n; i++ {
					assert.Equal(t, 0.0, corr.At(i, i), "diagonal must be zero")
					for j := 0; j < n; j++ {
						v := corr.At(i, j)
						assert.Equal(t, v, corr.At(j, i), "symmetry")
						assert.GreaterOrEqual(t, v, 0.0)
						assert.LessOrEqual(t, v, 1.0)
					}
				}
			}
		})
	}
}

func TestCompute_SpearmanAndPearsonSameShape(t *testing.T) {
	panel := alignedOf([][]float64{
		{1, 2, 3, 4},
		{1, 4, 9, 16},
		{4, 3, 2, 1},
	})

	pearson, err := NewEngine(1).Compute(context.Background(), panel, contracts.MeasurePearson)
	require.NoError(t, err)
	spearman, err := NewEngine(1).Compute(context.Background(), panel, contracts.MeasureSpearman)
	require.NoError(t, err)

	pr, pc := pearson.Dims()
	sr, sc := spearman.Dims()
	assert.Equal(t, pr, sr)
	assert.Equal(t, pc, sc)
	assert.Equal(t, 3, pr)

	// 단조 관계 → spearman 1, pearson < 1
	assert.InDelta(t, 1.0, spearman.At(0, 1), 1e-12)
	assert.Less(t, pearson.At(0, 1), 1.0)
	// 완전 역상관 → 절대값 1
	assert.InDelta(t, 1.0, spearman.At(0, 2), 1e-12)
	assert.InDelta(t, 1.0, pearson.At(0, 2), 1e-12)
}

func TestCompute_SpearmanAliasAccepted(t *testing.T) {
	panel := alignedOf([][]float64{{1, 2, 3}, {3, 1, 2}})

	corr, err := NewEngine(1).Compute(context.Background(), panel, "spearmanr")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, corr.At(0, 1), 1e-12)
}

func TestCompute_ZeroVarianceRowIsZero(t *testing.T) {
	panel := alignedOf([][]float64{
		{5, 5, 5},
		{1, 2, 3},
		{2, 4, 6},
	})

	corr, err := NewEngine(1).Compute(context.Background(), panel, contracts.MeasurePearson)
	require.NoError(t, err)

	assert.Equal(t, 0.0, corr.At(0, 1))
	assert.Equal(t, 0.0, corr.At(0, 2))
	assert.InDelta(t, 1.0, corr.At(1, 2), 1e-12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.False(t, math.IsNaN(corr.At(i, j)))
		}
	}
}

func TestCompute_ParallelEqualsSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	panel := randomPanel(rng, 40, 15)

	seq, err := NewEngine(1).Compute(context.Background(), panel, contracts.MeasureSpearman)
	require.NoError(t, err)
	par, err := NewEngine(4).WithParallelThreshold(2).Compute(context.Background(), panel, contracts.MeasureSpearman)
	require.NoError(t, err)

	assert.True(t, mat.Equal(seq, par))
}

func TestCompute_CanceledContext(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	panel := randomPanel(rng, 10, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(2).WithParallelThreshold(2).Compute(ctx, panel, contracts.MeasurePearson)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompute_UnknownMeasure(t *testing.T) {
	panel := alignedOf([][]float64{{1, 2, 3}, {3, 1, 2}})

	_, err := NewEngine(1).Compute(context.Background(), panel, "kendall")
	assert.ErrorIs(t, err, contracts.ErrInvalidMeasure)
}

func TestCompute_DoesNotMutatePanel(t *testing.T) {
	panel := alignedOf([][]float64{{1, 2, 3}, {3, 1, 2}})

	_, err := NewEngine(1).Compute(context.Background(), panel, contracts.MeasurePearson)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, panel.Row(0))
}

func TestRanks(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"distinct", []float64{10, 30, 20}, []float64{1, 3, 2}},
		{"ties share average", []float64{1, 2, 2, 3}, []float64{1, 2.5, 2.5, 4}},
		{"all equal", []float64{7, 7, 7}, []float64{2, 2, 2}},
		{"empty", []float64{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ranks(tt.in))
		})
	}
}
