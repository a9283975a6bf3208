package community

import (
	"fmt"
	"math"
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
)

// arc is one direction of an undirected edge
type arc struct {
	to int
	w  float64
}

// network is the dense working form of a (possibly aggregated) graph
//
// strength[v] 는 self 루프를 두 번 센다 (Σ strength == total == 2m)
type network struct {
	n        int
	adj      [][]arc   // to 기준 오름차순, self 루프 제외
	self     []float64 // 노드 내부 가중치 (간선 1회 계산)
	strength []float64
	size     []float64 // 원본 노드 수
	total    float64
}

// fromGraph converts g into a network; node IDs must be exactly 0..n-1
func fromGraph(g gonumgraph.WeightedUndirected) (*network, error) {
	nodes := gonumgraph.NodesOf(g.Nodes())
	n := len(nodes)

	seen := make([]bool, n)
	for _, node := range nodes {
		id := node.ID()
		if id < 0 || id >= int64(n) || seen[id] {
			return nil, fmt.Errorf("node id %d outside dense range [0,%d)", id, n)
		}
		seen[id] = true
	}

	net := &network{
		n:        n,
		adj:      make([][]arc, n),
		self:     make([]float64, n),
		strength: make([]float64, n),
		size:     make([]float64, n),
	}

	for u := 0; u < n; u++ {
		net.size[u] = 1
		to := g.From(int64(u))
		for to.Next() {
			v := int(to.Node().ID())
			w, ok := g.Weight(int64(u), int64(v))
			if !ok || w == 0 {
				continue
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("edge %d-%d has invalid weight %v", u, v, w)
			}
			if v == u {
				net.self[u] += w
				continue
			}
			net.adj[u] = append(net.adj[u], arc{to: v, w: w})
		}
		sort.Slice(net.adj[u], func(a, b int) bool {
			return net.adj[u][a].to < net.adj[u][b].to
		})
	}

	net.finish()
	return net, nil
}

// finish derives strength and total from adj and self in node order
func (net *network) finish() {
	net.total = 0
	for v := 0; v < net.n; v++ {
		k := 2 * net.self[v]
		for _, a := range net.adj[v] {
			k += a.w
		}
		net.strength[v] = k
		net.total += k
	}
}

// aggregate collapses every refined community into one node
// refined 는 renumber 된 라벨 (0..k-1) 이어야 한다
func (net *network) aggregate(refined []int, k int) *network {
	agg := &network{
		n:        k,
		adj:      make([][]arc, k),
		self:     make([]float64, k),
		strength: make([]float64, k),
		size:     make([]float64, k),
	}

	members := make([][]int, k)
	for v := 0; v < net.n; v++ {
		r := refined[v]
		members[r] = append(members[r], v)
		agg.self[r] += net.self[v]
		agg.size[r] += net.size[v]
	}

	weightTo := make([]float64, k)
	touched := make([]int, 0, k)
	for r := 0; r < k; r++ {
		for _, v := range members[r] {
			for _, a := range net.adj[v] {
				s := refined[a.to]
				if s == r {
					// 내부 간선은 양방향으로 두 번 등장
					agg.self[r] += a.w / 2
					continue
				}
				if weightTo[s] == 0 {
					touched = append(touched, s)
				}
				weightTo[s] += a.w
			}
		}
		sort.Ints(touched)
		arcs := make([]arc, 0, len(touched))
		for _, s := range touched {
			arcs = append(arcs, arc{to: s, w: weightTo[s]})
			weightTo[s] = 0
		}
		agg.adj[r] = arcs
		touched = touched[:0]
	}

	agg.finish()
	return agg
}

// renumber relabels membership by first appearance and returns the label count
func renumber(membership []int) ([]int, int) {
	out := make([]int, len(membership))
	labels := make(map[int]int)
	for v, c := range membership {
		id, ok := labels[c]
		if !ok {
			id = len(labels)
			labels[c] = id
		}
		out[v] = id
	}
	return out, len(labels)
}
