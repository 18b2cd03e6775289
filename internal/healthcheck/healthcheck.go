// Package healthcheck verifies the structural assumptions the generator
// makes about a source graph, using an independent gonum model of it.
package healthcheck

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/l3aro/go-wcet-smt/pkg/cfg"
)

// Status of a single check.
type Status string

const (
	StatusOK    Status = "ok"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// Finding is the outcome of one check.
type Finding struct {
	Check  string `json:"check" yaml:"check"`
	Status Status `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Result contains the full health check output for display.
type Result struct {
	Nodes    int       `json:"nodes" yaml:"nodes"`
	Edges    int       `json:"edges" yaml:"edges"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// Healthy reports whether no check failed. Warnings do not count.
func (r *Result) Healthy() bool {
	for _, f := range r.Findings {
		if f.Status == StatusError {
			return false
		}
	}
	return true
}

// Check runs every check against g.
func Check(g *cfg.Graph) (*Result, error) {
	if g == nil {
		return nil, errors.New("graph is nil")
	}

	m := newModel(g)
	result := &Result{Nodes: g.NumNodes(), Edges: g.NumEdges()}
	result.Findings = append(result.Findings,
		m.checkAcyclic(),
		m.checkReachability(),
		m.checkDeadEnds(),
		m.checkDominators(),
		m.checkEnd(),
	)
	return result, nil
}

// model mirrors a cfg.Graph in gonum graphs; node ids are block uids.
type model struct {
	g        *cfg.Graph
	forward  *simple.DirectedGraph
	backward *simple.DirectedGraph
	selfLoop []int
}

func newModel(g *cfg.Graph) *model {
	m := &model{
		g:        g,
		forward:  simple.NewDirectedGraph(),
		backward: simple.NewDirectedGraph(),
	}
	for _, uid := range g.NodeUIDs() {
		m.forward.AddNode(simple.Node(uid))
		m.backward.AddNode(simple.Node(uid))
	}
	for _, id := range g.EdgeIDs() {
		if id.Src == id.Dst {
			// simple graphs reject self edges.
			m.selfLoop = append(m.selfLoop, id.Src)
			continue
		}
		m.forward.SetEdge(simple.Edge{F: simple.Node(id.Src), T: simple.Node(id.Dst)})
		m.backward.SetEdge(simple.Edge{F: simple.Node(id.Dst), T: simple.Node(id.Src)})
	}
	return m
}

func (m *model) label(uid int64) string {
	if n, ok := m.g.Node(int(uid)); ok {
		return n.Label
	}
	return fmt.Sprint(uid)
}

func (m *model) labels(uids []int64) string {
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	out := make([]string, 0, len(uids))
	for _, uid := range uids {
		out = append(out, m.label(uid))
	}
	return strings.Join(out, ", ")
}

func (m *model) checkAcyclic() Finding {
	f := Finding{Check: "acyclic", Status: StatusOK}
	if len(m.selfLoop) > 0 {
		uids := make([]int64, 0, len(m.selfLoop))
		for _, uid := range m.selfLoop {
			uids = append(uids, int64(uid))
		}
		f.Status = StatusError
		f.Detail = "self loop on " + m.labels(uids)
		return f
	}

	_, err := topo.Sort(m.forward)
	var cycles topo.Unorderable
	if errors.As(err, &cycles) {
		var parts []string
		for _, scc := range cycles {
			uids := make([]int64, 0, len(scc))
			for _, n := range scc {
				uids = append(uids, n.ID())
			}
			parts = append(parts, "{"+m.labels(uids)+"}")
		}
		sort.Strings(parts)
		f.Status = StatusError
		f.Detail = "loop through " + strings.Join(parts, " ")
	} else if err != nil {
		f.Status = StatusError
		f.Detail = err.Error()
	}
	return f
}

// visited returns the ids reachable from root in g.
func visited(g graph.Graph, root int) map[int64]bool {
	seen := make(map[int64]bool)
	df := traverse.DepthFirst{
		Visit: func(n graph.Node) { seen[n.ID()] = true },
	}
	df.Walk(g, simple.Node(root), nil)
	return seen
}

func (m *model) checkReachability() Finding {
	f := Finding{Check: "reachability", Status: StatusOK}
	seen := visited(m.forward, m.g.Start())
	if !seen[int64(m.g.End())] {
		f.Status = StatusError
		f.Detail = fmt.Sprintf("end block %s is not reachable from start block %s", m.label(int64(m.g.End())), m.label(int64(m.g.Start())))
		return f
	}
	var unreachable []int64
	for _, uid := range m.g.NodeUIDs() {
		if !seen[int64(uid)] {
			unreachable = append(unreachable, int64(uid))
		}
	}
	if len(unreachable) > 0 {
		f.Status = StatusWarn
		f.Detail = "unreachable from start: " + m.labels(unreachable)
	}
	return f
}

func (m *model) checkDeadEnds() Finding {
	f := Finding{Check: "dead-ends", Status: StatusOK}
	fromStart := visited(m.forward, m.g.Start())
	toEnd := visited(m.backward, m.g.End())
	var dead []int64
	for _, uid := range m.g.NodeUIDs() {
		id := int64(uid)
		if fromStart[id] && !toEnd[id] {
			dead = append(dead, id)
		}
	}
	if len(dead) > 0 {
		f.Status = StatusWarn
		f.Detail = "pruned, cannot reach end: " + m.labels(dead)
	}
	return f
}

// checkDominators compares the declared dominators with a dominator tree
// computed from the start block. A declared dominator that does not
// dominate its block breaks cut synthesis; one that dominates without
// being immediate only loosens it.
func (m *model) checkDominators() Finding {
	f := Finding{Check: "dominators", Status: StatusOK}
	tree := flow.Dominators(simple.Node(m.g.Start()), m.forward)
	reachable := visited(m.forward, m.g.Start())

	var wrong, loose []string
	for _, uid := range m.g.NodeUIDs() {
		if uid == m.g.Start() || !reachable[int64(uid)] {
			continue
		}
		n, _ := m.g.Node(uid)
		idom := tree.DominatorOf(int64(uid))
		if idom == nil {
			continue
		}
		if int64(n.Dominator) == idom.ID() {
			continue
		}
		if dominates(tree, int64(n.Dominator), int64(uid)) {
			loose = append(loose, fmt.Sprintf("%s (declared %s, immediate %s)", n.Label, m.label(int64(n.Dominator)), m.label(idom.ID())))
		} else {
			wrong = append(wrong, fmt.Sprintf("%s (declared %s, immediate %s)", n.Label, m.label(int64(n.Dominator)), m.label(idom.ID())))
		}
	}
	switch {
	case len(wrong) > 0:
		f.Status = StatusError
		f.Detail = "not dominating: " + strings.Join(wrong, "; ")
	case len(loose) > 0:
		f.Status = StatusWarn
		f.Detail = "not immediate: " + strings.Join(loose, "; ")
	}
	return f
}

func dominates(tree flow.DominatorTree, a, b int64) bool {
	for cur := tree.DominatorOf(b); cur != nil; cur = tree.DominatorOf(cur.ID()) {
		if cur.ID() == a {
			return true
		}
	}
	return false
}

func (m *model) checkEnd() Finding {
	f := Finding{Check: "end-block", Status: StatusOK}
	end, ok := m.g.Node(m.g.End())
	if !ok {
		f.Status = StatusError
		f.Detail = "no end block"
		return f
	}
	if len(end.Succs) > 0 {
		f.Status = StatusWarn
		f.Detail = fmt.Sprintf("end block %s has %d successors", end.Label, len(end.Succs))
	}
	return f
}
