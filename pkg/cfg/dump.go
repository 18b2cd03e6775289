package cfg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteLabelMap writes one "block_var,label" line per node, by ascending uid.
// Block variables are written as they appear in the input.
func (g *Graph) WriteLabelMap(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, uid := range g.NodeUIDs() {
		n, _ := g.Node(uid)
		v, ok := g.labelToVar[n.Label]
		if !ok {
			v = n.BlockVar
		}
		if _, err := fmt.Fprintf(bw, "%s,%s\n", v, n.Label); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseLabelMap reads a label map written by WriteLabelMap and returns the
// label to uid mapping it describes.
func ParseLabelMap(r io.Reader) (map[string]int, error) {
	labels := make(map[string]int)
	seen := make(map[int]string)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, label, ok := strings.Cut(line, ",")
		if !ok || label == "" {
			return nil, &ParseError{Source: "labels", Line: lineNo, Fragment: line, Err: fmt.Errorf("%w: expected block_var,label", ErrMalformedRecord)}
		}
		uid, err := uidFromVar(v)
		if err != nil {
			return nil, &ParseError{Source: "labels", Line: lineNo, Fragment: v, Err: err}
		}
		if _, dup := labels[label]; dup {
			return nil, &ParseError{Source: "labels", Line: lineNo, Fragment: label, Err: fmt.Errorf("%w: duplicate label", ErrMalformedRecord)}
		}
		if other, dup := seen[uid]; dup {
			return nil, &ParseError{Source: "labels", Line: lineNo, Fragment: line, Err: fmt.Errorf("%w: uid %d already bound to %q", ErrMalformedRecord, uid, other)}
		}
		labels[label] = uid
		seen[uid] = label
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading label map: %w", err)
	}
	return labels, nil
}

// WriteLongestPath writes the edges of a longest start-to-end path as
// "(src_label, dst_label)" lines.
func (g *Graph) WriteLongestPath(w io.Writer) error {
	r, err := g.LongestSyntacticPath(false)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, uid := range r.Path {
		n, _ := g.Node(uid)
		if uid != g.start {
			fmt.Fprintf(bw, ", %s)\n", n.Label)
		}
		if uid != g.end {
			fmt.Fprintf(bw, "(%s", n.Label)
		}
	}
	return bw.Flush()
}

// WriteCutList writes one "cut_<head>_<tail> <cost>" line per cut, in cut
// order.
func (g *Graph) WriteCutList(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, id := range g.CutIDs() {
		c, _ := g.Cut(id.Head, id.Tail)
		fmt.Fprintf(bw, "%s %d\n", c.CostVar().Name, c.Cost)
	}
	return bw.Flush()
}
