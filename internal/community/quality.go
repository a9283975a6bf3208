package community

import (
	"math"

	gonumgraph "gonum.org/v1/gonum/graph"
	gcommunity "gonum.org/v1/gonum/graph/community"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// objective is the resolution-scaled quality function being optimised
type objective struct {
	quality contracts.QualityFunction
	gamma   float64
	total   float64 // 2m
}

// penalty is the expected weight between two disjoint node sets a and b
//
//	modularity: γ·K_a·K_b / 2m
//	cpm:        γ·N_a·N_b
func (o objective) penalty(aK, aN, bK, bN float64) float64 {
	if o.quality == contracts.QualityCPM {
		return o.gamma * aN * bN
	}
	return o.gamma * aK * bK / o.total
}

// gain of placing a node (kv, nv) into a community with totals (K, N) that excludes it
func (o objective) gain(kvc, kv, nv, K, N float64) float64 {
	return kvc - o.penalty(kv, nv, K, N)
}

// value evaluates the objective for membership on net
//
//	modularity: 1/2m · Σ_c [ Σ_{i,j∈c} A_ij − γ·K_c²/2m ]
//	cpm:        Σ_c [ e_c − γ·N_c(N_c−1)/2 ]
func (o objective) value(net *network, membership []int) float64 {
	labels, k := renumber(membership)
	in := make([]float64, k) // Σ_{i,j∈c} A_ij (양방향)
	K := make([]float64, k)
	N := make([]float64, k)

	for v := 0; v < net.n; v++ {
		c := labels[v]
		K[c] += net.strength[v]
		N[c] += net.size[v]
		in[c] += 2 * net.self[v]
		for _, a := range net.adj[v] {
			if labels[a.to] == c {
				in[c] += a.w
			}
		}
	}

	var q float64
	if o.quality == contracts.QualityCPM {
		for c := 0; c < k; c++ {
			q += in[c]/2 - o.gamma*N[c]*(N[c]-1)/2
		}
		return q
	}

	if o.total == 0 {
		return 0
	}
	for c := 0; c < k; c++ {
		q += in[c] - o.gamma*K[c]*K[c]/o.total
	}
	return q / o.total
}

// Modularity scores communities on g with gonum's reference implementation
// 간선 가중치 합이 0 이면 0
func Modularity(g gonumgraph.WeightedUndirected, communities [][]int, resolution float64) float64 {
	groups := make([][]gonumgraph.Node, len(communities))
	for c, members := range communities {
		groups[c] = make([]gonumgraph.Node, len(members))
		for i, v := range members {
			groups[c][i] = g.Node(int64(v))
		}
	}

	q := gcommunity.Q(g, groups, resolution)
	if math.IsNaN(q) {
		return 0
	}
	return q
}
