package cfg

import (
	"math/big"
	"sort"
)

// PathResult is the outcome of a longest path query between a dominator
// and a node it dominates.
type PathResult struct {
	Cost  int64    // Maximum cost of an acyclic path, node and edge costs included
	Path  []int    // Node uids of one maximum cost path, head first
	Nodes []int    // Every node uid on some head-to-tail path, sorted
	Edges []EdgeID // Every edge on some head-to-tail path, sorted
}

// LongestPath computes the maximum cost path from src to dst, where src must
// dominate dst. The graph between them must be acyclic; a cycle or a broken
// dominance precondition yields an error wrapping ErrInvalidGraph.
func (g *Graph) LongestPath(src, dst int) (*PathResult, error) {
	d, err := g.mustNode(dst)
	if err != nil {
		return nil, err
	}

	dist := map[int]int64{dst: d.Cost}
	next := make(map[int]int)
	edgeSeen := make(map[EdgeID]bool)
	var edges []EdgeID

	finalized, err := g.sweep(src, dst, func(pred *Node, cur int, e *Edge) {
		if !edgeSeen[e.ID] {
			edgeSeen[e.ID] = true
			edges = append(edges, e.ID)
		}
		cand := dist[cur] + e.Cost + pred.Cost
		if old, ok := dist[pred.UID]; !ok || cand > old {
			dist[pred.UID] = cand
			next[pred.UID] = cur
		}
	})
	if err != nil {
		return nil, err
	}

	cost, ok := dist[src]
	if !ok {
		return nil, invariantf("node %d does not reach node %d", src, dst)
	}

	path := []int{src}
	onPath := map[int]bool{src: true}
	for cur := src; cur != dst; {
		cur, ok = next[cur]
		if !ok {
			return nil, invariantf("broken longest path from %d to %d", src, dst)
		}
		if onPath[cur] {
			return nil, invariantf("loop detected at node %d", cur)
		}
		onPath[cur] = true
		path = append(path, cur)
	}

	nodes := append([]int{src}, finalized...)
	sort.Ints(nodes)
	sortEdgeIDs(edges)
	return &PathResult{Cost: cost, Path: path, Nodes: nodes, Edges: edges}, nil
}

// CountPaths returns the number of syntactic paths from src to dst, with the
// same preconditions as LongestPath.
func (g *Graph) CountPaths(src, dst int) (*big.Int, error) {
	counts := map[int]*big.Int{dst: big.NewInt(1)}
	_, err := g.sweep(src, dst, func(pred *Node, cur int, _ *Edge) {
		c, ok := counts[pred.UID]
		if !ok {
			c = new(big.Int)
			counts[pred.UID] = c
		}
		c.Add(c, counts[cur])
	})
	if err != nil {
		return nil, err
	}
	c, ok := counts[src]
	if !ok {
		return nil, invariantf("node %d does not reach node %d", src, dst)
	}
	return new(big.Int).Set(c), nil
}

// sweep visits the sub-graph between src and dst in reverse topological
// order, starting from dst. A node is finalized only once every successor
// that can reach dst is finalized; successors that never reach dst (dead
// ends) are ignored. relax is called for every incoming edge of a finalized
// node. src itself is never finalized. The finalized uids are returned in
// visiting order.
func (g *Graph) sweep(src, dst int, relax func(pred *Node, cur int, e *Edge)) ([]int, error) {
	if src == dst {
		return nil, invariantf("head and tail coincide at node %d", src)
	}
	if _, err := g.mustNode(src); err != nil {
		return nil, err
	}
	if err := g.checkDominates(src, dst); err != nil {
		return nil, err
	}

	reaches := g.backwardClosure(dst)
	final := make(map[int]bool)
	queued := map[int]bool{dst: true}
	worklist := []int{dst}
	var order []int

	dsp := 0
	for len(worklist) > 0 {
		if dsp >= len(worklist) {
			return nil, invariantf("no ready node between %d and %d, loop detected", src, dst)
		}
		idx := dsp
		cur := worklist[idx]
		if final[cur] {
			return nil, invariantf("loop detected at node %d", cur)
		}
		node, err := g.mustNode(cur)
		if err != nil {
			return nil, err
		}

		ready := true
		for _, s := range node.Succs {
			if reaches[s] && !final[s] {
				ready = false
				break
			}
		}
		if !ready {
			dsp++
			continue
		}
		dsp = 0

		for _, p := range node.Preds {
			pred, err := g.mustNode(p)
			if err != nil {
				return nil, err
			}
			e, ok := g.Edge(p, cur)
			if !ok {
				return nil, invariantf("missing edge %d_%d", p, cur)
			}
			relax(pred, cur, e)
			if p != src && !final[p] && !queued[p] {
				queued[p] = true
				worklist = append(worklist, p)
			}
		}

		worklist = append(worklist[:idx], worklist[idx+1:]...)
		final[cur] = true
		order = append(order, cur)
	}
	return order, nil
}

// backwardClosure returns every node that can reach dst, dst included.
func (g *Graph) backwardClosure(dst int) map[int]bool {
	seen := map[int]bool{dst: true}
	queue := []int{dst}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := g.Node(cur)
		if !ok {
			continue
		}
		for _, p := range n.Preds {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return seen
}

// checkDominates walks the dominator chain of dst looking for src.
func (g *Graph) checkDominates(src, dst int) error {
	cur := dst
	for steps := 0; steps <= len(g.nodes); steps++ {
		if cur == src {
			return nil
		}
		n, ok := g.Node(cur)
		if !ok || n.Dominator == NoDominator {
			return invariantf("node %d does not dominate node %d", src, dst)
		}
		cur = n.Dominator
	}
	return invariantf("dominator chain of node %d is cyclic", dst)
}
