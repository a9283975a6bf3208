package contracts

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Panel is the flat (ticker, value) observation stream passed from S0 to S1
// ⭐ 계약: day-major 블록, 오래된 날짜 먼저, 블록 내 종목 순서는 보장되지 않음
type Panel struct {
	Tickers []string  `json:"tickers"`
	Values  []float64 `json:"values"`
}

// Len returns the number of observations
func (p *Panel) Len() int {
	return len(p.Values)
}

// TickerSet is the canonical stock ordering: distinct tickers sorted lexicographically
// ⭐ SSOT: 행 인덱스 ↔ 종목 매핑은 파이프라인 전체에서 이 순서를 사용
type TickerSet struct {
	tickers []string
	index   map[string]int
}

// NewTickerSet deduplicates and sorts tickers
func NewTickerSet(tickers []string) TickerSet {
	index := make(map[string]int, len(tickers))
	unique := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, seen := index[t]; seen {
			continue
		}
		index[t] = 0
		unique = append(unique, t)
	}
	sort.Strings(unique)
	for i, t := range unique {
		index[t] = i
	}
	return TickerSet{tickers: unique, index: index}
}

// Len returns the number of distinct stocks
func (s TickerSet) Len() int {
	return len(s.tickers)
}

// At returns the ticker at canonical index i
func (s TickerSet) At(i int) string {
	return s.tickers[i]
}

// Index returns the canonical index of ticker
func (s TickerSet) Index(ticker string) (int, bool) {
	i, ok := s.index[ticker]
	return i, ok
}

// Tickers returns a copy of the canonical ordering
func (s TickerSet) Tickers() []string {
	out := make([]string, len(s.tickers))
	copy(out, s.tickers)
	return out
}

// AlignedPanel is the stock-major matrix passed from S2 to S3
// rows = canonical stock index, cols = trading day (oldest → newest)
type AlignedPanel struct {
	Tickers TickerSet
	Values  *mat.Dense
}

// NumStocks returns the number of rows
func (a *AlignedPanel) NumStocks() int {
	r, _ := a.Values.Dims()
	return r
}

// NumDays returns the number of columns
func (a *AlignedPanel) NumDays() int {
	_, c := a.Values.Dims()
	return c
}

// Row returns stock i's series (shares storage with the matrix, do not modify)
func (a *AlignedPanel) Row(i int) []float64 {
	return a.Values.RawRowView(i)
}
