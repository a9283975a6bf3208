package selection

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
)

func TestTopMembers(t *testing.T) {
	tests := []struct {
		name    string
		means   []float64
		members []int
		n       int
		want    []int
	}{
		{
			name:    "keeps highest in ascending order",
			means:   []float64{2, 4, 11, 0, 1, 4.3},
			members: []int{0, 1, 2},
			n:       2,
			want:    []int{1, 2},
		},
		{
			name:    "n larger than community",
			means:   []float64{3, 1, 2},
			members: []int{0, 1, 2},
			n:       10,
			want:    []int{1, 2, 0},
		},
		{
			name:    "boundary tie prefers lowest index",
			means:   []float64{5, 1, 5, 5},
			members: []int{0, 1, 2, 3},
			n:       2,
			want:    []int{2, 0},
		},
		{
			name:    "subset of stocks",
			means:   []float64{9, 1, 8, 2},
			members: []int{1, 3},
			n:       1,
			want:    []int{3},
		},
		{
			name:    "nan ranks last",
			means:   []float64{math.NaN(), -5},
			members: []int{0, 1},
			n:       1,
			want:    []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopMembers(tt.means, tt.members, tt.n))
		})
	}
}

func TestTopMembers_MatchesReferenceOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	for trial := 0; trial < 200; trial++ {
		size := 1 + rng.Intn(12)
		means := make([]float64, size)
		for i := range means {
			means[i] = float64(rng.Intn(4)) // 동점이 자주 생기도록
		}
		members := rng.Perm(size)[:1+rng.Intn(size)]
		sort.Ints(members)
		n := 1 + rng.Intn(size+2)

		// 기준: 평균 내림차순, 동점이면 인덱스 오름차순으로 n 개를 고른 뒤 뒤집기
		ref := append([]int(nil), members...)
		sort.Slice(ref, func(a, b int) bool {
			if means[ref[a]] != means[ref[b]] {
				return means[ref[a]] > means[ref[b]]
			}
			return ref[a] < ref[b]
		})
		if n < len(ref) {
			ref = ref[:n]
		}
		for i, j := 0, len(ref)-1; i < j; i, j = i+1, j-1 {
			ref[i], ref[j] = ref[j], ref[i]
		}

		got := TopMembers(means, members, n)
		require.Equal(t, ref, got, "means=%v members=%v n=%d", means, members, n)
		assert.Len(t, got, min(n, len(members)))
	}
}

func TestTopMembers_DoesNotMutateMembers(t *testing.T) {
	members := []int{0, 1, 2}
	TopMembers([]float64{3, 2, 1}, members, 2)
	assert.Equal(t, []int{0, 1, 2}, members)
}

func TestRanker_Rank(t *testing.T) {
	panel := &contracts.AlignedPanel{
		Tickers: contracts.NewTickerSet([]string{"ALFA", "AMBR", "ARGO", "BETA", "BOLT", "BRIX"}),
		Values: mat.NewDense(6, 3, []float64{
			1, 2, 3,
			2, 4, 6,
			10, 11, 12,
			1, -2, 1,
			3, -3, 3,
			5, 3, 5,
		}),
	}

	got := NewRanker(logger.NewNop()).Rank(panel, [][]int{{0, 1, 2}, {3, 4, 5}}, 2)

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].CommunityIndex)
	assert.Equal(t, "AMBR, ARGO", got[0].Community)
	assert.Equal(t, 3, got[0].Size)
	assert.Equal(t, 1, got[1].CommunityIndex)
	assert.Equal(t, "BOLT, BRIX", got[1].Community)
	assert.Equal(t, []string{"BOLT", "BRIX"}, got[1].Tickers)
}

func TestMeans(t *testing.T) {
	panel := &contracts.AlignedPanel{
		Tickers: contracts.NewTickerSet([]string{"A", "B"}),
		Values:  mat.NewDense(2, 2, []float64{1, 3, -1, -2}),
	}
	assert.Equal(t, []float64{2, -1.5}, Means(panel))
}
