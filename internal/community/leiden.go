package community

import (
	"fmt"
	"math"
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// eps 이하의 이득 차이는 동점으로 본다
const eps = 1e-10

// Options configures Detect
type Options struct {
	Resolution float64
	Iterations int // <0 수렴까지, 0 단일 노드 그대로, n 최대 n 라운드
	Quality    contracts.QualityFunction
}

// Partition is the result of S5
type Partition struct {
	Membership  []int   // 노드 → 커뮤니티 (최소 멤버 인덱스 순으로 번호)
	Communities [][]int // 커뮤니티 → 멤버 오름차순
	Quality     float64 // 선택된 목적함수 값
	Modularity  float64 // resolution 적용 modularity (gonum)
	Rounds      int
}

// Size returns the number of communities
func (p *Partition) Size() int {
	return len(p.Communities)
}

// Detect implements S5: Leiden community detection on a weighted undirected graph
// ⭐ SSOT: S5 커뮤니티 탐지는 여기서만
//
// 결정적 동작:
//   - 노드는 인덱스 오름차순으로 방문
//   - 동점이면 현재 커뮤니티 유지, 아니면 가장 작은 라벨
//   - 가중치 합이 0 이면 단일 노드 파티션
func Detect(g gonumgraph.WeightedUndirected, opts Options) (*Partition, error) {
	quality := opts.Quality
	if quality == "" {
		quality = contracts.QualityModularity
	}
	if !quality.IsValid() {
		return nil, contracts.NewValidationError(contracts.KindInvalidQuality, "quality_function",
			"unsupported quality function %q", opts.Quality)
	}
	if opts.Resolution < 0 || math.IsNaN(opts.Resolution) || math.IsInf(opts.Resolution, 0) {
		return nil, contracts.NewValidationError(contracts.KindInvalidResolution, "resolution_parameter",
			"resolution must be a finite non-negative number, got %v", opts.Resolution)
	}

	net, err := fromGraph(g)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	obj := objective{quality: quality, gamma: opts.Resolution, total: net.total}

	membership := make([]int, net.n)
	for v := range membership {
		membership[v] = v
	}

	rounds := 0
	if net.total > 0 {
		for opts.Iterations < 0 || rounds < opts.Iterations {
			next, changed := leidenRound(net, membership, obj)
			rounds++
			membership = next
			if !changed {
				break
			}
		}
	}

	membership, k := renumber(membership)
	communities := make([][]int, k)
	for v, c := range membership {
		communities[c] = append(communities[c], v)
	}

	return &Partition{
		Membership:  membership,
		Communities: communities,
		Quality:     obj.value(net, membership),
		Modularity:  Modularity(g, communities, opts.Resolution),
		Rounds:      rounds,
	}, nil
}

// leidenRound runs local moving, refinement and aggregation until every community
// is a single aggregate node, starting from membership on the original network
func leidenRound(base *network, membership []int, obj objective) ([]int, bool) {
	before, _ := renumber(membership)

	part := append([]int(nil), membership...)
	nodeToAgg := make([]int, base.n)
	for v := range nodeToAgg {
		nodeToAgg[v] = v
	}

	net := base
	aggMembership := append([]int(nil), membership...)

	for {
		moveNodes(net, aggMembership, obj)
		for v := range part {
			part[v] = aggMembership[nodeToAgg[v]]
		}

		_, numCommunities := renumber(aggMembership)
		if numCommunities == net.n {
			break
		}

		refined, kr := renumber(refine(net, aggMembership, obj))
		if kr == net.n {
			// 정제가 노드를 줄이지 못하면 더 집계할 수 없다
			break
		}

		// 집계 노드의 초기 파티션은 정제 전 파티션
		coarse, _ := renumber(aggMembership)
		next := make([]int, kr)
		for v := 0; v < net.n; v++ {
			next[refined[v]] = coarse[v]
		}
		for v := range nodeToAgg {
			nodeToAgg[v] = refined[nodeToAgg[v]]
		}

		net = net.aggregate(refined, kr)
		aggMembership = next
	}

	after, _ := renumber(part)
	for v := range after {
		if after[v] != before[v] {
			return part, true
		}
	}
	return part, false
}

// moveNodes is the queue-based fast local moving phase; membership is updated in place
// labels must lie in [0, net.n)
func moveNodes(net *network, membership []int, obj objective) bool {
	n := net.n
	commK := make([]float64, n)
	commN := make([]float64, n)
	count := make([]int, n)
	for v := 0; v < n; v++ {
		c := membership[v]
		commK[c] += net.strength[v]
		commN[c] += net.size[v]
		count[c]++
	}

	// 빈 라벨은 작은 값부터 꺼낸다
	var empty []int
	for c := n - 1; c >= 0; c-- {
		if count[c] == 0 {
			empty = append(empty, c)
		}
	}

	queue := make([]int, n)
	inQueue := make([]bool, n)
	for v := range queue {
		queue[v] = v
		inQueue[v] = true
	}

	weightTo := make([]float64, n)
	marked := make([]bool, n)
	var touched []int
	changed := false

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		inQueue[v] = false

		kv, nv := net.strength[v], net.size[v]
		cur := membership[v]

		for _, a := range net.adj[v] {
			c := membership[a.to]
			if !marked[c] {
				marked[c] = true
				touched = append(touched, c)
			}
			weightTo[c] += a.w
		}
		sort.Ints(touched)

		commK[cur] -= kv
		commN[cur] -= nv
		count[cur]--

		best := cur
		bestGain := obj.gain(weightTo[cur], kv, nv, commK[cur], commN[cur])
		for _, c := range touched {
			if c == cur {
				continue
			}
			if g := obj.gain(weightTo[c], kv, nv, commK[c], commN[c]); g > bestGain+eps {
				best, bestGain = c, g
			}
		}
		// 혼자 있는 편이 나으면 빈 커뮤니티로
		if count[cur] > 0 && bestGain < -eps && len(empty) > 0 {
			best = empty[len(empty)-1]
			empty = empty[:len(empty)-1]
		}

		for _, c := range touched {
			weightTo[c] = 0
			marked[c] = false
		}
		touched = touched[:0]

		membership[v] = best
		commK[best] += kv
		commN[best] += nv
		count[best]++

		if best == cur {
			continue
		}
		changed = true
		if count[cur] == 0 {
			empty = append(empty, cur)
		}
		for _, a := range net.adj[v] {
			if membership[a.to] != best && !inQueue[a.to] {
				inQueue[a.to] = true
				queue = append(queue, a.to)
			}
		}
	}

	return changed
}

// refine splits every community of membership into well-connected sub-communities
// nodes start as singletons and greedily merge only inside their own community
func refine(net *network, membership []int, obj objective) []int {
	n := net.n
	commK := make([]float64, n)
	commN := make([]float64, n)
	for v := 0; v < n; v++ {
		commK[membership[v]] += net.strength[v]
		commN[membership[v]] += net.size[v]
	}

	refined := make([]int, n)
	refK := make([]float64, n)
	refN := make([]float64, n)
	refCount := make([]int, n)
	refExt := make([]float64, n) // 같은 커뮤니티 내 나머지로 향하는 가중치
	kvIn := make([]float64, n)
	for v := 0; v < n; v++ {
		refined[v] = v
		refK[v] = net.strength[v]
		refN[v] = net.size[v]
		refCount[v] = 1
		for _, a := range net.adj[v] {
			if membership[a.to] == membership[v] {
				kvIn[v] += a.w
			}
		}
		refExt[v] = kvIn[v]
	}

	weightTo := make([]float64, n)
	marked := make([]bool, n)
	var touched []int

	for v := 0; v < n; v++ {
		own := refined[v]
		if refCount[own] > 1 {
			continue
		}

		c := membership[v]
		kv, nv := net.strength[v], net.size[v]
		if kvIn[v]-obj.penalty(kv, nv, commK[c]-kv, commN[c]-nv) < -eps {
			continue
		}

		for _, a := range net.adj[v] {
			if membership[a.to] != c {
				continue
			}
			t := refined[a.to]
			if !marked[t] {
				marked[t] = true
				touched = append(touched, t)
			}
			weightTo[t] += a.w
		}
		sort.Ints(touched)

		best := own
		bestGain := 0.0
		for _, t := range touched {
			if t == own {
				continue
			}
			if refExt[t] < obj.penalty(refK[t], refN[t], commK[c]-refK[t], commN[c]-refN[t])-eps {
				continue
			}
			if g := obj.gain(weightTo[t], kv, nv, refK[t], refN[t]); g > bestGain+eps {
				best, bestGain = t, g
			}
		}

		if best != own {
			refined[v] = best
			refK[best] += kv
			refN[best] += nv
			refCount[best]++
			refCount[own]--
			refExt[best] += kvIn[v] - 2*weightTo[best]
		}

		for _, t := range touched {
			weightTo[t] = 0
			marked[t] = false
		}
		touched = touched[:0]
	}

	return refined
}
