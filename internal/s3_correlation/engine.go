package s3_correlation

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// DefaultParallelThreshold 이 종목 수부터 행 단위 병렬 계산
const DefaultParallelThreshold = 64

// Engine implements S3: absolute correlation matrix between stock rows
// ⭐ SSOT: S3 상관계수 계산은 여기서만
//
// Numeric policy: 분산 0 인 종목은 모든 종목과 상관 0 (NaN 전파 없음)
type Engine struct {
	workers           int
	parallelThreshold int
}

// NewEngine creates a correlation engine; workers <= 0 uses GOMAXPROCS
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		workers:           workers,
		parallelThreshold: DefaultParallelThreshold,
	}
}

// WithParallelThreshold overrides the stock count at which rows fan out
func (e *Engine) WithParallelThreshold(n int) *Engine {
	e.parallelThreshold = n
	return e
}

// Compute returns the symmetric |corr| matrix with a zero diagonal
func (e *Engine) Compute(ctx context.Context, panel *contracts.AlignedPanel, measure contracts.CorrelationMeasure) (*mat.SymDense, error) {
	n := panel.NumStocks()

	var transform func([]float64) []float64
	switch measure.Normalize() {
	case contracts.MeasurePearson:
		transform = func(row []float64) []float64 { return append([]float64(nil), row...) }
	case contracts.MeasureSpearman:
		transform = Ranks
	default:
		return nil, contracts.NewValidationError(contracts.KindInvalidMeasure, "correlation_measure",
			"unsupported measure %q", measure)
	}

	// 1. 행별 표준화 (중심화 + L2 정규화)
	unit := make([][]float64, n)
	for i := 0; i < n; i++ {
		unit[i] = standardize(transform(panel.Row(i)))
	}

	// 2. 상삼각 계산 (i<j), 대각은 0
	corr := mat.NewSymDense(n, nil)
	if n < e.parallelThreshold || e.workers == 1 {
		for i := 0; i < n; i++ {
			fillRow(corr, unit, i)
		}
		return corr, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			fillRow(corr, unit, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("correlation rows: %w", err)
	}

	return corr, nil
}

// fillRow writes corr[i][j] for every j > i (disjoint cells per row)
func fillRow(corr *mat.SymDense, unit [][]float64, i int) {
	for j := i + 1; j < len(unit); j++ {
		corr.SetSym(i, j, similarity(unit[i], unit[j]))
	}
}

// similarity is |pearson| of two standardized rows, clamped to [0,1]
func similarity(a, b []float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	r := math.Abs(floats.Dot(a, b))
	if r > 1 {
		return 1
	}
	return r
}

// standardize centers x and scales it to unit L2 norm; nil for zero variance
func standardize(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	floats.AddConst(-stat.Mean(x, nil), x)
	norm := floats.Norm(x, 2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil
	}
	floats.Scale(1/norm, x)
	return x
}
