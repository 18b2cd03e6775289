package cfg

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	recordMarker    = "BasicBlock "
	dominantPrefix  = "bd_"
	startPrefix     = "bs_"
	labelMarker     = "<label>:"
	dominatorMarker = "Dominator = "
	branchMarker    = "br "
	nullDominator   = "NULL"
)

// block is one BasicBlock record split into its variable and body.
type block struct {
	variable string
	body     string
	label    string
}

// ParseReader reads a textual CFG and builds a Graph.
func ParseReader(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cfg: %w", err)
	}
	return Parse(string(data))
}

// Parse builds a Graph from a sequence of BasicBlock records.
//
// The first pass maps labels to block variables and finds the two dominant
// (bd_) blocks: the first one is the start, the second one the end. The
// second pass builds nodes and the edges of their br instructions; edges get
// cost 0.
func Parse(text string) (*Graph, error) {
	blocks, err := splitBlocks(text)
	if err != nil {
		return nil, err
	}

	g := New()

	var dominant []string
	for _, b := range blocks {
		if _, ok := g.labelToVar[b.label]; ok {
			return nil, &ParseError{Source: "cfg", Fragment: b.label, Err: fmt.Errorf("%w: duplicate label", ErrMalformedRecord)}
		}
		if _, ok := g.varToLabel[b.variable]; ok {
			return nil, &ParseError{Source: "cfg", Fragment: b.variable, Err: fmt.Errorf("%w: duplicate block", ErrMalformedRecord)}
		}
		g.labelToVar[b.label] = b.variable
		g.varToLabel[b.variable] = b.label
		if strings.Contains(b.variable, dominantPrefix) {
			dominant = append(dominant, b.variable)
		}
	}
	if len(dominant) != 2 {
		return nil, &ParseError{
			Source:   "cfg",
			Fragment: strings.Join(dominant, ", "),
			Err:      fmt.Errorf("%w: expected a start and an end block, found %d dominant blocks", ErrMalformedRecord, len(dominant)),
		}
	}
	startVar, endVar := dominant[0], dominant[1]

	var edges []EdgeID
	for _, b := range blocks {
		n, succs, err := g.parseNode(b, startVar)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, &ParseError{Source: "cfg", Fragment: b.variable, Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
		}
		for _, dst := range succs {
			edges = append(edges, EdgeID{Src: n.UID, Dst: dst})
		}
	}

	for _, e := range edges {
		if err := g.AddEdge(e.Src, e.Dst, 0); err != nil {
			return nil, &ParseError{Source: "cfg", Fragment: e.String(), Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
		}
	}

	start, _ := uidFromVar(startVar)
	end, _ := uidFromVar(endVar)
	if err := g.SetEndpoints(start, end); err != nil {
		return nil, &ParseError{Source: "cfg", Fragment: startVar + ", " + endVar, Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
	}
	return g, nil
}

func splitBlocks(text string) ([]block, error) {
	var blocks []block
	for _, rec := range strings.Split(strings.TrimSpace(text), recordMarker) {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		variable, body, ok := strings.Cut(rec, ":")
		if !ok {
			return nil, &ParseError{Source: "cfg", Fragment: rec, Err: fmt.Errorf("%w: missing ':' after block variable", ErrMalformedRecord)}
		}
		variable = strings.TrimSpace(variable)
		if _, err := uidFromVar(variable); err != nil {
			return nil, &ParseError{Source: "cfg", Fragment: variable, Err: err}
		}
		label, err := blockLabel(body)
		if err != nil {
			return nil, &ParseError{Source: "cfg", Fragment: rec, Err: err}
		}
		blocks = append(blocks, block{variable: variable, body: body, label: label})
	}
	return blocks, nil
}

// blockLabel finds the label of a block body: either the token following an
// LLVM "<label>:" comment, or the name before ':' on the second line.
func blockLabel(body string) (string, error) {
	var label string
	if _, rest, ok := strings.Cut(body, labelMarker); ok {
		if f := strings.Fields(rest); len(f) > 0 {
			label = f[0]
		}
	} else if _, second, ok := strings.Cut(body, "\n"); ok {
		label, _, _ = strings.Cut(second, ":")
		label = strings.TrimSpace(label)
	}
	if label == "" {
		return "", fmt.Errorf("%w: missing block label", ErrMalformedRecord)
	}
	return label, nil
}

func (g *Graph) parseNode(b block, startVar string) (Node, []int, error) {
	fail := func(frag string, err error) (Node, []int, error) {
		return Node{}, nil, &ParseError{Source: "cfg", Fragment: frag, Err: err}
	}

	fields := strings.Fields(b.body)
	if len(fields) == 0 {
		return fail(b.variable, fmt.Errorf("%w: missing cost", ErrMalformedRecord))
	}
	cost, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return fail(fields[0], fmt.Errorf("%w: bad cost", ErrMalformedRecord))
	}

	_, domRest, ok := strings.Cut(b.body, dominatorMarker)
	if !ok {
		return fail(b.variable, fmt.Errorf("%w: missing %q", ErrMalformedRecord, strings.TrimSpace(dominatorMarker)))
	}
	domVar := strings.TrimSpace(firstLine(domRest))
	dominator := NoDominator
	if domVar != nullDominator {
		if _, ok := g.varToLabel[domVar]; !ok {
			return fail(domVar, ErrUnknownBlock)
		}
		dominator, _ = uidFromVar(domVar)
	}

	blockVar := b.variable
	if blockVar == startVar {
		blockVar = strings.Replace(blockVar, dominantPrefix, startPrefix, 1)
	}
	// The first two toolchain blocks are always start-form selectors.
	switch blockVar {
	case dominantPrefix + "0":
		blockVar = startPrefix + "0"
	case dominantPrefix + "1":
		blockVar = startPrefix + "1"
	}

	uid, _ := uidFromVar(b.variable)
	n := Node{
		UID:       uid,
		Label:     b.label,
		BlockVar:  blockVar,
		Cost:      cost,
		Dominator: dominator,
	}

	var succs []int
	if _, brRest, ok := strings.Cut(b.body, branchMarker); ok {
		for _, part := range strings.Split(firstLine(brRest), "label") {
			part = strings.TrimSpace(part)
			if len(part) < 2 || part[0] != '%' {
				continue
			}
			dstLabel := strings.TrimSuffix(part[1:], ",")
			dstVar, ok := g.labelToVar[dstLabel]
			if !ok {
				return fail(dstLabel, ErrUnknownLabel)
			}
			dst, _ := uidFromVar(dstVar)
			succs = append(succs, dst)
		}
	}
	return n, succs, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
