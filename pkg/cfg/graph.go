package cfg

import (
	"fmt"
	"sort"
)

// Graph is a loop-free source code graph. It owns every node, edge and cut
// in contiguous stores indexed through uid lookups; entities refer to each
// other only by uid.
//
// A Graph is built once, optionally cost-patched, then enriched with cuts
// before being encoded. It is not safe for concurrent mutation.
type Graph struct {
	nodes     []Node
	nodeIndex map[int]int

	edges     []Edge
	edgeIndex map[EdgeID]int

	cuts     []Cut
	cutIndex map[CutID]int

	labelToUID map[string]int
	labelToVar map[string]string
	varToLabel map[string]string

	start int
	end   int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodeIndex:  make(map[int]int),
		edgeIndex:  make(map[EdgeID]int),
		cutIndex:   make(map[CutID]int),
		labelToUID: make(map[string]int),
		labelToVar: make(map[string]string),
		varToLabel: make(map[string]string),
		start:      NoDominator,
		end:        NoDominator,
	}
}

// AddNode adds a node. An empty BlockVar defaults to bs_<uid> for a node
// without dominator and b_<uid> otherwise. Predecessor and successor lists
// are filled by AddEdge.
func (g *Graph) AddNode(n Node) error {
	if _, ok := g.nodeIndex[n.UID]; ok {
		return fmt.Errorf("duplicate node %d", n.UID)
	}
	if _, ok := g.labelToUID[n.Label]; ok && n.Label != "" {
		return fmt.Errorf("duplicate label %q", n.Label)
	}
	if n.BlockVar == "" {
		if n.IsStart() {
			n.BlockVar = fmt.Sprintf("bs_%d", n.UID)
		} else {
			n.BlockVar = fmt.Sprintf("b_%d", n.UID)
		}
	}
	n.Preds, n.Succs = nil, nil

	g.nodeIndex[n.UID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	if n.Label != "" {
		g.labelToUID[n.Label] = n.UID
		if _, ok := g.labelToVar[n.Label]; !ok {
			g.labelToVar[n.Label] = n.BlockVar
			g.varToLabel[n.BlockVar] = n.Label
		}
	}
	return nil
}

// AddEdge adds the edge src -> dst and links both endpoints. Adding an
// existing pair is a no-op.
func (g *Graph) AddEdge(src, dst int, cost int64) error {
	id := EdgeID{Src: src, Dst: dst}
	if _, ok := g.edgeIndex[id]; ok {
		return nil
	}
	s, ok := g.Node(src)
	if !ok {
		return fmt.Errorf("edge %s: unknown source node", id)
	}
	d, ok := g.Node(dst)
	if !ok {
		return fmt.Errorf("edge %s: unknown destination node", id)
	}
	g.edgeIndex[id] = len(g.edges)
	g.edges = append(g.edges, Edge{ID: id, Cost: cost})
	s.Succs = append(s.Succs, dst)
	d.Preds = append(d.Preds, src)
	return nil
}

// SetEndpoints designates the start and end nodes.
func (g *Graph) SetEndpoints(start, end int) error {
	if _, ok := g.nodeIndex[start]; !ok {
		return fmt.Errorf("unknown start node %d", start)
	}
	if _, ok := g.nodeIndex[end]; !ok {
		return fmt.Errorf("unknown end node %d", end)
	}
	g.start, g.end = start, end
	return nil
}

// Start returns the uid of the start node.
func (g *Graph) Start() int { return g.start }

// End returns the uid of the end node.
func (g *Graph) End() int { return g.end }

// Node returns the node with the given uid.
func (g *Graph) Node(uid int) (*Node, bool) {
	i, ok := g.nodeIndex[uid]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// Edge returns the edge src -> dst.
func (g *Graph) Edge(src, dst int) (*Edge, bool) {
	i, ok := g.edgeIndex[EdgeID{Src: src, Dst: dst}]
	if !ok {
		return nil, false
	}
	return &g.edges[i], true
}

// Cut returns the cut head -> tail.
func (g *Graph) Cut(head, tail int) (*Cut, bool) {
	i, ok := g.cutIndex[CutID{Head: head, Tail: tail}]
	if !ok {
		return nil, false
	}
	return &g.cuts[i], true
}

// UID resolves a block label.
func (g *Graph) UID(label string) (int, bool) {
	uid, ok := g.labelToUID[label]
	return uid, ok
}

// Labels returns a copy of the label to uid mapping.
func (g *Graph) Labels() map[string]int {
	m := make(map[string]int, len(g.labelToUID))
	for l, uid := range g.labelToUID {
		m[l] = uid
	}
	return m
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NumCuts returns the number of cuts.
func (g *Graph) NumCuts() int { return len(g.cuts) }

// NodeUIDs returns all node uids in ascending order.
func (g *Graph) NodeUIDs() []int {
	uids := make([]int, 0, len(g.nodes))
	for _, n := range g.nodes {
		uids = append(uids, n.UID)
	}
	sort.Ints(uids)
	return uids
}

// EdgeIDs returns all edge ids in ascending (src, dst) order.
func (g *Graph) EdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, len(g.edges))
	for _, e := range g.edges {
		ids = append(ids, e.ID)
	}
	sortEdgeIDs(ids)
	return ids
}

// CutIDs returns all cut ids in ascending (head, tail) order.
func (g *Graph) CutIDs() []CutID {
	ids := make([]CutID, 0, len(g.cuts))
	for _, c := range g.cuts {
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

func sortEdgeIDs(ids []EdgeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

func (g *Graph) mustNode(uid int) (*Node, error) {
	n, ok := g.Node(uid)
	if !ok {
		return nil, invariantf("unknown node %d", uid)
	}
	return n, nil
}
