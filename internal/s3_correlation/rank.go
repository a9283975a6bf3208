package s3_correlation

import "sort"

// Ranks returns 1-based ranks of x; tied values share their average rank
func Ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return x[idx[a]] < x[idx[b]]
	})

	ranks := make([]float64, len(x))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && x[idx[end]] == x[idx[start]] {
			end++
		}
		// 동점 구간 [start, end) 평균 순위
		avg := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}
