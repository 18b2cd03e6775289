package cfg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Generation is a group of cut candidates. Cuts files separate generations
// with lines containing '#'; on-the-fly candidates get one generation each.
type Generation []CutID

// AddCut registers the cut head -> tail, computing its cost and enclosed
// sub-graph. It reports whether a new cut was added; registering an existing
// pair is a no-op.
func (g *Graph) AddCut(head, tail int) (bool, error) {
	id := CutID{Head: head, Tail: tail}
	if _, ok := g.cutIndex[id]; ok {
		return false, nil
	}
	r, err := g.LongestPath(head, tail)
	if err != nil {
		return false, err
	}
	return true, g.addCutResult(id, r)
}

func (g *Graph) addCutResult(id CutID, r *PathResult) error {
	if _, ok := g.cutIndex[id]; ok {
		return nil
	}
	c, err := newCut(id, r)
	if err != nil {
		return err
	}
	g.cutIndex[id] = len(g.cuts)
	g.cuts = append(g.cuts, *c)
	return nil
}

// AddDominatorCuts adds a cut from its dominator to every node with more
// than one predecessor. It returns the number of cuts added.
func (g *Graph) AddDominatorCuts() (int, error) {
	added := 0
	for _, uid := range g.NodeUIDs() {
		n, _ := g.Node(uid)
		if len(n.Preds) <= 1 {
			continue
		}
		ok, err := g.AddCut(n.Dominator, uid)
		if err != nil {
			return added, fmt.Errorf("dominator cut %d_%d: %w", n.Dominator, uid, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// ReadSemanticCuts parses a cuts file of "head_label,tail_label" lines.
// A line containing '#' starts a new generation; '%' signs and whitespace
// are ignored, blank lines skipped.
func (g *Graph) ReadSemanticCuts(r io.Reader) ([]Generation, error) {
	gens := []Generation{nil}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if strings.Contains(raw, "#") {
			gens = append(gens, nil)
			continue
		}
		line := strings.Map(func(r rune) rune {
			if r == '%' || r == ' ' || r == '\t' || r == '\r' || r == '\n' {
				return -1
			}
			return r
		}, raw)
		if line == "" {
			continue
		}

		headLabel, tailLabel, ok := strings.Cut(line, ",")
		if !ok || strings.Contains(tailLabel, ",") {
			return nil, &ParseError{Source: "cuts", Line: lineNo, Fragment: raw, Err: fmt.Errorf("%w: expected head,tail", ErrMalformedRecord)}
		}
		head, ok := g.UID(headLabel)
		if !ok {
			return nil, &ParseError{Source: "cuts", Line: lineNo, Fragment: headLabel, Err: ErrUnknownLabel}
		}
		tail, ok := g.UID(tailLabel)
		if !ok {
			return nil, &ParseError{Source: "cuts", Line: lineNo, Fragment: tailLabel, Err: ErrUnknownLabel}
		}
		gens[len(gens)-1] = append(gens[len(gens)-1], CutID{Head: head, Tail: tail})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading cuts file: %w", err)
	}
	return gens, nil
}

// MergePoints walks the dominator chain from the end node back to the start
// node. The result starts with the end uid and finishes with the start uid.
func (g *Graph) MergePoints() ([]int, error) {
	points := []int{g.end}
	cur := g.end
	for cur != g.start {
		if len(points) > len(g.nodes) {
			return nil, invariantf("dominator chain of node %d is cyclic", g.end)
		}
		n, err := g.mustNode(cur)
		if err != nil {
			return nil, err
		}
		if n.Dominator == NoDominator {
			return nil, invariantf("dominator chain of node %d misses start node %d", g.end, g.start)
		}
		cur = n.Dominator
		points = append(points, cur)
	}
	return points, nil
}

// RecursiveCuts derives cut candidates from the merge points by pairing
// them at strides 2, 4, 8, ...; the last pair of each stride is closed on
// the start node. Each candidate is its own generation.
func (g *Graph) RecursiveCuts() ([]Generation, error) {
	points, err := g.MergePoints()
	if err != nil {
		return nil, err
	}

	var gens []Generation
	n := len(points)
	for step := 2; step < n; step *= 2 {
		for k := 0; ; k += step {
			tail := points[k]
			head := points[n-1]
			last := k+step >= n
			if !last {
				head = points[k+step]
			}
			if head != tail {
				gens = append(gens, Generation{{Head: head, Tail: tail}})
			}
			if last {
				break
			}
		}
	}
	return gens, nil
}

// AddSemanticCuts registers every candidate of every generation in order.
// It returns the number of cuts added.
func (g *Graph) AddSemanticCuts(gens []Generation) (int, error) {
	added := 0
	for _, gen := range gens {
		for _, id := range gen {
			ok, err := g.AddCut(id.Head, id.Tail)
			if err != nil {
				return added, fmt.Errorf("semantic cut %s: %w", id, err)
			}
			if ok {
				added++
			}
		}
	}
	return added, nil
}

// LongestSyntacticPath computes the longest path from start to end and,
// when addCut is set, registers it as the global cut.
func (g *Graph) LongestSyntacticPath(addCut bool) (*PathResult, error) {
	r, err := g.LongestPath(g.start, g.end)
	if err != nil {
		return nil, err
	}
	if addCut {
		if err := g.addCutResult(CutID{Head: g.start, Tail: g.end}, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
