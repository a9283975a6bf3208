package s2_alignment

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// Align reshapes the day-major observation stream into a stock-major matrix
// ⭐ SSOT: S2 정렬 로직은 여기서만
//
// 입력 계약:
//   - 스트림은 day 블록의 연속, 오래된 날짜가 먼저
//   - 각 블록은 종목당 정확히 1개 관측치 (블록 내 순서 무관)
//   - 최근 numDays 블록만 사용, 이전 블록은 버림
func Align(panel *contracts.Panel, numDays int) (*contracts.AlignedPanel, error) {
	if len(panel.Tickers) != len(panel.Values) {
		return nil, contracts.NewValidationError(contracts.KindLengthMismatch, "tickers",
			"%d tickers for %d values", len(panel.Tickers), len(panel.Values))
	}

	tickers := contracts.NewTickerSet(panel.Tickers)
	numStocks := tickers.Len()
	if numStocks == 0 || numDays <= 0 {
		return nil, contracts.NewValidationError(contracts.KindWindowExceedsData, "values",
			"%d stocks over %d days", numStocks, numDays)
	}

	if panel.Len()%numStocks != 0 {
		return nil, contracts.NewValidationError(contracts.KindRaggedBlocks, "values",
			"%d observations do not split into blocks of %d stocks", panel.Len(), numStocks)
	}

	window := numStocks * numDays
	if panel.Len() < window {
		return nil, contracts.NewValidationError(contracts.KindWindowExceedsData, "values",
			"%d days requested but only %d day blocks present", numDays, panel.Len()/numStocks)
	}

	offset := panel.Len() - window
	dayTickers := panel.Tickers[offset:]
	dayValues := panel.Values[offset:]

	aligned := mat.NewDense(numStocks, numDays, nil)
	for day := 0; day < numDays; day++ {
		start := day * numStocks
		blockTickers := dayTickers[start : start+numStocks]
		blockValues := dayValues[start : start+numStocks]

		perm := blockPermutation(blockTickers)
		for row, src := range perm {
			if blockTickers[src] != tickers.At(row) {
				return nil, contracts.NewValidationError(contracts.KindDayBlockMismatch, "tickers",
					"day %d of %d: expected %s at position %d, found %s",
					day, numDays, tickers.At(row), row, blockTickers[src])
			}
			aligned.Set(row, day, blockValues[src])
		}
	}

	return &contracts.AlignedPanel{
		Tickers: tickers,
		Values:  aligned,
	}, nil
}

// blockPermutation returns the stable argsort of one day block's tickers
// perm[i] = 블록 내 위치, 정렬 후 i 번째 종목
func blockPermutation(tickers []string) []int {
	perm := make([]int, len(tickers))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return tickers[perm[a]] < tickers[perm[b]]
	})
	return perm
}
