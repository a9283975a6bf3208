package selection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// Ranker implements S6: picks the best performing members of every community
// ⭐ SSOT: S6 선정 로직은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(logger *logger.Logger) *Ranker {
	return &Ranker{logger: logger}
}

// Rank builds one portfolio record per community, in community order
// 각 레코드의 종목은 평균값 오름차순 (가장 좋은 종목이 마지막)
func (r *Ranker) Rank(panel *contracts.AlignedPanel, communities [][]int, n int) []contracts.Portfolio {
	means := Means(panel)

	portfolios := make([]contracts.Portfolio, 0, len(communities))
	for c, members := range communities {
		picked := TopMembers(means, members, n)

		tickers := make([]string, len(picked))
		for i, idx := range picked {
			tickers[i] = panel.Tickers.At(idx)
		}
		portfolios = append(portfolios, contracts.NewPortfolio(c, tickers, len(members)))
	}

	r.logger.WithFields(map[string]interface{}{
		"communities":       len(communities),
		"n_best_performing": n,
	}).Debug("Community members ranked")

	return portfolios
}

// Means returns the average value of every stock over the aligned window
func Means(panel *contracts.AlignedPanel) []float64 {
	means := make([]float64, panel.NumStocks())
	for i := range means {
		means[i] = stat.Mean(panel.Row(i), nil)
	}
	return means
}

// TopMembers returns the min(n, |members|) members with the highest mean,
// ordered by ascending mean
//
// 동점: 인덱스가 작은 종목이 뒤쪽(우선)에 온다
func TopMembers(means []float64, members []int, n int) []int {
	order := append([]int(nil), members...)
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := sortKey(means[order[a]]), sortKey(means[order[b]])
		if ka != kb {
			return ka < kb
		}
		return order[a] > order[b]
	})

	if n > len(order) {
		n = len(order)
	}
	if n < 0 {
		n = 0
	}
	return order[len(order)-n:]
}

// sortKey orders NaN below every real mean
func sortKey(m float64) float64 {
	if math.IsNaN(m) {
		return math.Inf(-1)
	}
	return m
}
