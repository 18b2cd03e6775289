package cfg

import (
	"fmt"

	"github.com/l3aro/go-wcet-smt/pkg/smt"
)

// Encoding selects how costs are projected into constraints.
type Encoding int

const (
	// EncodingDefault defines every cost variable with an if-then-else on
	// its selector and sums them into the objective.
	EncodingDefault Encoding = iota
	// EncodingAssertSoft expresses costs as weighted soft assertions on the
	// negated selectors, for solvers with native MaxSMT support.
	EncodingAssertSoft
	// EncodingDifferenceLogic bounds the difference of adjacent node cost
	// variables; the objective is the cost variable of the end node.
	EncodingDifferenceLogic
)

// ParseEncoding validates a numeric encoding id.
func ParseEncoding(id int) (Encoding, error) {
	switch e := Encoding(id); e {
	case EncodingDefault, EncodingAssertSoft, EncodingDifferenceLogic:
		return e, nil
	}
	return 0, fmt.Errorf("unknown encoding %d (0: default, 1: assert-soft, 2: difference logic)", id)
}

func (e Encoding) String() string {
	switch e {
	case EncodingDefault:
		return "default"
	case EncodingAssertSoft:
		return "assert-soft"
	case EncodingDifferenceLogic:
		return "difference-logic"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// EmitOptions tunes the encodings.
type EmitOptions struct {
	// EdgeImpliesNodes makes a taken edge imply both endpoint selectors in
	// the difference logic encoding.
	EdgeImpliesNodes bool
}

// Strategy projects graph entities into an environment.
type Strategy interface {
	Encoding() Encoding
	// EmitEntities emits every node and edge and returns the objective term.
	EmitEntities(env *smt.Environment, g *Graph) smt.Term
	EmitNode(env *smt.Environment, g *Graph, n *Node)
	EmitEdge(env *smt.Environment, g *Graph, e *Edge)
	EmitCut(env *smt.Environment, g *Graph, c *Cut)
}

// NewStrategy returns the strategy implementing enc.
func NewStrategy(enc Encoding, opts EmitOptions) (Strategy, error) {
	switch enc {
	case EncodingDefault:
		return iteStrategy{}, nil
	case EncodingAssertSoft:
		return softStrategy{}, nil
	case EncodingDifferenceLogic:
		return diffStrategy{opts: opts}, nil
	}
	return nil, fmt.Errorf("unknown encoding %d", int(enc))
}

// Emit appends the constraints of the node.
func (n *Node) Emit(env *smt.Environment, g *Graph, s Strategy) { s.EmitNode(env, g, n) }

// Emit appends the constraints of the edge.
func (e *Edge) Emit(env *smt.Environment, g *Graph, s Strategy) { s.EmitEdge(env, g, e) }

// Emit appends the constraints of the cut.
func (c *Cut) Emit(env *smt.Environment, g *Graph, s Strategy) { s.EmitCut(env, g, c) }

const objectiveName = "cost"

type iteStrategy struct{}

func (iteStrategy) Encoding() Encoding { return EncodingDefault }

func (s iteStrategy) EmitEntities(env *smt.Environment, g *Graph) smt.Term {
	cost := env.DeclareFun(objectiveName, smt.SortInt)
	var sum []smt.Term
	for _, uid := range g.NodeUIDs() {
		n, _ := g.Node(uid)
		if n.Cost != 0 {
			sum = append(sum, n.CostVar())
		}
		s.EmitNode(env, g, n)
	}
	for _, id := range g.EdgeIDs() {
		e, _ := g.Edge(id.Src, id.Dst)
		if e.Cost != 0 {
			sum = append(sum, e.CostVar())
		}
		s.EmitEdge(env, g, e)
	}
	env.Assert(smt.Equal(cost, smt.Plus(sum...)))
	return cost
}

func (iteStrategy) EmitNode(env *smt.Environment, _ *Graph, n *Node) {
	c := env.DeclareFun(n.CostVar().Name, smt.SortInt)
	if n.IsStart() || n.Cost == 0 {
		env.Assert(smt.Equal(c, smt.Int(n.Cost)))
		return
	}
	env.Assert(smt.Equal(c, smt.Ite(n.Selector(), smt.Int(n.Cost), smt.Int(0))))
}

func (iteStrategy) EmitEdge(env *smt.Environment, _ *Graph, e *Edge) {
	c := env.DeclareFun(e.CostVar().Name, smt.SortInt)
	if e.Cost == 0 {
		env.Assert(smt.Equal(c, smt.Int(0)))
		return
	}
	env.Assert(smt.Equal(c, smt.Ite(e.Selector(), smt.Int(e.Cost), smt.Int(0))))
}

func (iteStrategy) EmitCut(env *smt.Environment, g *Graph, c *Cut) {
	var sum []smt.Term
	for _, uid := range c.Nodes {
		if n, ok := g.Node(uid); ok && n.Cost != 0 {
			sum = append(sum, n.CostVar())
		}
	}
	for _, id := range c.Edges {
		if e, ok := g.Edge(id.Src, id.Dst); ok && e.Cost != 0 {
			sum = append(sum, e.CostVar())
		}
	}
	v := env.DeclareFun(c.CostVar().Name, smt.SortInt)
	env.Assert(smt.Equal(v, smt.Plus(sum...)))
	env.Assert(smt.Leq(v, smt.Int(c.Cost)))
}

type softStrategy struct{}

func (softStrategy) Encoding() Encoding { return EncodingAssertSoft }

func (s softStrategy) EmitEntities(env *smt.Environment, g *Graph) smt.Term {
	cost := env.DeclareFun(objectiveName, smt.SortReal)
	for _, uid := range g.NodeUIDs() {
		n, _ := g.Node(uid)
		s.softNode(env, n, objectiveName)
	}
	for _, id := range g.EdgeIDs() {
		e, _ := g.Edge(id.Src, id.Dst)
		s.softEdge(env, e, objectiveName)
	}
	return cost
}

func (s softStrategy) EmitNode(env *smt.Environment, _ *Graph, n *Node) {
	s.softNode(env, n, objectiveName)
}

func (s softStrategy) EmitEdge(env *smt.Environment, _ *Graph, e *Edge) {
	s.softEdge(env, e, objectiveName)
}

func (s softStrategy) EmitCut(env *smt.Environment, g *Graph, c *Cut) {
	v := env.DeclareFun(c.CostVar().Name, smt.SortReal)
	for _, uid := range c.Nodes {
		if n, ok := g.Node(uid); ok {
			s.softNode(env, n, v.Name)
		}
	}
	for _, id := range c.Edges {
		if e, ok := g.Edge(id.Src, id.Dst); ok {
			s.softEdge(env, e, v.Name)
		}
	}
	env.Assert(smt.Leq(v, smt.Int(c.Cost)))
}

// Selecting a block violates its soft assertion and adds its cost to the
// penalty of the group.
func (softStrategy) softNode(env *smt.Environment, n *Node, id string) {
	if n.Cost > 0 {
		env.AssertSoft(smt.Not(n.Selector()), n.Cost, id)
	}
}

func (softStrategy) softEdge(env *smt.Environment, e *Edge, id string) {
	if e.Cost > 0 {
		env.AssertSoft(smt.Not(e.Selector()), e.Cost, id)
	}
}

type diffStrategy struct {
	opts EmitOptions
}

func (diffStrategy) Encoding() Encoding { return EncodingDifferenceLogic }

func (s diffStrategy) EmitEntities(env *smt.Environment, g *Graph) smt.Term {
	// Zero-cost entities still carry the difference constraints.
	for _, uid := range g.NodeUIDs() {
		n, _ := g.Node(uid)
		s.EmitNode(env, g, n)
	}
	for _, id := range g.EdgeIDs() {
		e, _ := g.Edge(id.Src, id.Dst)
		s.EmitEdge(env, g, e)
	}
	end, _ := g.Node(g.end)
	return end.CostVar()
}

func (diffStrategy) EmitNode(env *smt.Environment, g *Graph, n *Node) {
	c := env.DeclareFun(n.CostVar().Name, smt.SortInt)
	var bounds []smt.Term
	for _, p := range n.Preds {
		pred, ok := g.Node(p)
		if !ok {
			continue
		}
		var edgeCost int64
		if e, ok := g.Edge(p, n.UID); ok {
			edgeCost = e.Cost
		}
		bounds = append(bounds, smt.Leq(smt.Diff(c, pred.CostVar()), smt.Int(n.Cost+edgeCost)))
	}
	if len(bounds) == 0 {
		env.Assert(smt.Leq(c, smt.Int(n.Cost)))
		return
	}
	env.Assert(smt.Imply(n.Selector(), smt.Or(bounds...)))
}

func (s diffStrategy) EmitEdge(env *smt.Environment, g *Graph, e *Edge) {
	env.DeclareFun(e.CostVar().Name, smt.SortInt)
	src, ok1 := g.Node(e.ID.Src)
	dst, ok2 := g.Node(e.ID.Dst)
	if !ok1 || !ok2 {
		return
	}
	env.Assert(smt.Imply(e.Selector(),
		smt.Leq(smt.Diff(dst.CostVar(), src.CostVar()), smt.Int(e.Cost+dst.Cost))))
	if s.opts.EdgeImpliesNodes {
		env.Assert(smt.And(
			smt.Imply(e.Selector(), src.Selector()),
			smt.Imply(e.Selector(), dst.Selector())))
	}
}

func (diffStrategy) EmitCut(env *smt.Environment, g *Graph, c *Cut) {
	head, ok1 := g.Node(c.ID.Head)
	tail, ok2 := g.Node(c.ID.Tail)
	if !ok1 || !ok2 {
		return
	}
	env.Assert(smt.Leq(smt.Diff(tail.CostVar(), head.CostVar()), smt.Int(c.Cost+tail.Cost)))
}
