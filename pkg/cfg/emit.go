package cfg

import (
	"fmt"
	"math/big"

	"github.com/l3aro/go-wcet-smt/pkg/smt"
)

// EmitStats summarizes an emitted problem. The same values are appended to
// the environment as trailing comments.
type EmitStats struct {
	Encoding    Encoding
	Paths       *big.Int
	Cuts        int
	LongestPath int64
}

// Emit encodes the graph into env with the given encoding: node and edge
// constraints, every cut, the start and end selectors, and the objective
// bounded by the longest syntactic path.
func (g *Graph) Emit(env *smt.Environment, enc Encoding, opts EmitOptions) (*EmitStats, error) {
	s, err := NewStrategy(enc, opts)
	if err != nil {
		return nil, err
	}
	start, err := g.mustNode(g.start)
	if err != nil {
		return nil, fmt.Errorf("start node: %w", err)
	}
	end, err := g.mustNode(g.end)
	if err != nil {
		return nil, fmt.Errorf("end node: %w", err)
	}

	objective := s.EmitEntities(env, g)
	for _, id := range g.CutIDs() {
		c, _ := g.Cut(id.Head, id.Tail)
		c.Emit(env, g, s)
	}
	env.Assert(smt.And(start.Selector(), end.Selector()))

	longest, err := g.LongestPath(g.start, g.end)
	if err != nil {
		return nil, fmt.Errorf("longest syntactic path: %w", err)
	}
	paths, err := g.CountPaths(g.start, g.end)
	if err != nil {
		return nil, fmt.Errorf("counting paths: %w", err)
	}

	env.Assert(smt.And(
		smt.Leq(smt.Int(0), objective),
		smt.Leq(objective, smt.Int(longest.Cost))))
	env.Maximize(objective, smt.WithLowerBound(0), smt.WithUpperBound(longest.Cost))

	stats := &EmitStats{
		Encoding:    enc,
		Paths:       paths,
		Cuts:        g.NumCuts(),
		LongestPath: longest.Cost,
	}
	env.AddComment(fmt.Sprintf("ENCODING = %d", int(enc)))
	env.AddComment("NB_PATHS = " + paths.String())
	env.AddComment(fmt.Sprintf("NB_PATHS_DIGITS = %d", len(paths.String())))
	env.AddComment(fmt.Sprintf("NB_CUTS = %d", stats.Cuts))
	env.AddComment(fmt.Sprintf("LONGEST_PATH = %d", longest.Cost))
	return stats, nil
}
