package graph

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/graph/simple"
)

// Build implements S4: one node per stock, one weighted edge per positive correlation
// ⭐ SSOT: 노드 ID = 정규 종목 인덱스 (0..n-1)
//
// 상관 0 인 쌍은 간선을 만들지 않는다 (탐지기 입장에서 부재 == 가중치 0)
func Build(corr *mat.SymDense) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	if corr == nil {
		return g
	}

	n := corr.SymmetricDim()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := corr.At(i, j)
			if w <= 0 {
				continue
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: w})
		}
	}
	return g
}

// Stats summarizes a built graph for logging
type Stats struct {
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges"`
	TotalWeight float64 `json:"total_weight"`
	Density     float64 `json:"density"`
}

// Describe computes Stats for g
func Describe(g *simple.WeightedUndirectedGraph) Stats {
	s := Stats{Nodes: g.Nodes().Len()}

	edges := g.WeightedEdges()
	for edges.Next() {
		s.Edges++
		s.TotalWeight += edges.WeightedEdge().Weight()
	}

	if s.Nodes > 1 {
		s.Density = float64(s.Edges) / float64(s.Nodes*(s.Nodes-1)/2)
	}
	return s
}
