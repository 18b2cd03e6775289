// Package cfg models loop-free control flow graphs annotated with execution
// costs and dominators, and encodes them as WCET optimization problems.
package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/l3aro/go-wcet-smt/pkg/smt"
)

// NoDominator is the dominator uid of the start block.
const NoDominator = -1

// EdgeID identifies an edge by its ordered pair of node uids.
type EdgeID struct {
	Src int `json:"src" yaml:"src" msgpack:"src"`
	Dst int `json:"dst" yaml:"dst" msgpack:"dst"`
}

func (id EdgeID) String() string {
	return strconv.Itoa(id.Src) + "_" + strconv.Itoa(id.Dst)
}

// Less orders ids by source, then destination.
func (id EdgeID) Less(o EdgeID) bool {
	if id.Src != o.Src {
		return id.Src < o.Src
	}
	return id.Dst < o.Dst
}

// CutID identifies a cut by its (head, tail) pair.
type CutID struct {
	Head int `json:"head" yaml:"head" msgpack:"head"`
	Tail int `json:"tail" yaml:"tail" msgpack:"tail"`
}

func (id CutID) String() string {
	return strconv.Itoa(id.Head) + "_" + strconv.Itoa(id.Tail)
}

// Less orders ids by head, then tail.
func (id CutID) Less(o CutID) bool {
	if id.Head != o.Head {
		return id.Head < o.Head
	}
	return id.Tail < o.Tail
}

// Node is a basic block.
type Node struct {
	UID       int    // Numeric suffix of the block variable
	Label     string // Toolchain label of the block
	BlockVar  string // Boolean selector, true iff the block is executed
	Cost      int64  // Cost of executing the block
	Dominator int    // Immediate dominator uid, NoDominator for the start block
	Preds     []int  // Predecessor uids in edge creation order
	Succs     []int  // Successor uids in edge creation order
}

// Selector returns the Boolean selector of the node.
func (n *Node) Selector() smt.Term {
	return smt.Var(n.BlockVar)
}

// CostVar returns the cost variable of the node.
func (n *Node) CostVar() smt.Term {
	return smt.Var("c" + strconv.Itoa(n.UID))
}

// IsStart reports whether the node has no dominator.
func (n *Node) IsStart() bool {
	return n.Dominator < 0
}

// Edge is a possible transfer of control between two blocks.
type Edge struct {
	ID   EdgeID
	Cost int64
}

// Selector returns the Boolean selector of the edge, true iff it is taken.
func (e *Edge) Selector() smt.Term {
	return smt.Var("t_" + e.ID.String())
}

// CostVar returns the cost variable of the edge.
func (e *Edge) CostVar() smt.Term {
	return smt.Var("c_" + e.ID.String())
}

// Cut summarizes every head-to-tail path by its maximum cost. Nodes and
// Edges enclose the sub-graph of all such paths, sorted.
type Cut struct {
	ID    CutID
	Cost  int64
	Nodes []int
	Edges []EdgeID
}

func newCut(id CutID, r *PathResult) (*Cut, error) {
	if !containsInt(r.Nodes, id.Head) || !containsInt(r.Nodes, id.Tail) {
		return nil, invariantf("cut %s does not enclose its endpoints", id)
	}
	if len(r.Edges) == 0 {
		return nil, invariantf("cut %s encloses no edge", id)
	}
	return &Cut{
		ID:    id,
		Cost:  r.Cost,
		Nodes: append([]int(nil), r.Nodes...),
		Edges: append([]EdgeID(nil), r.Edges...),
	}, nil
}

// CostVar returns the cost variable of the cut.
func (c *Cut) CostVar() smt.Term {
	return smt.Var("cut_" + c.ID.String())
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// uidFromVar extracts the uid of a block variable such as bd_0 or b_12.
func uidFromVar(v string) (int, error) {
	parts := strings.Split(v, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBlock, v)
	}
	uid, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBlock, v)
	}
	return uid, nil
}
