package cfg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ApplyMatching overwrites node and edge costs from a matching file.
//
// Each line is "(src) cost" for a node or "(src, dst) cost" for an edge;
// '%' signs and whitespace are ignored and a comma may separate the closing
// parenthesis from the cost. Every node the file does not name is reset to
// cost 0, edges keep their default 0. The file is the only source of costs
// once applied.
func (g *Graph) ApplyMatching(r io.Reader) error {
	updated := make(map[int]bool)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		src, dst, cost, err := parseMatchingLine(line)
		if err != nil {
			return &ParseError{Source: "matching", Line: lineNo, Fragment: line, Err: err}
		}

		srcUID, ok := g.UID(src)
		if !ok {
			return &ParseError{Source: "matching", Line: lineNo, Fragment: src, Err: ErrUnknownLabel}
		}
		if dst == "" {
			n, _ := g.Node(srcUID)
			n.Cost = cost
			updated[srcUID] = true
			continue
		}

		dstUID, ok := g.UID(dst)
		if !ok {
			return &ParseError{Source: "matching", Line: lineNo, Fragment: dst, Err: ErrUnknownLabel}
		}
		e, ok := g.Edge(srcUID, dstUID)
		if !ok {
			return &ParseError{Source: "matching", Line: lineNo, Fragment: line, Err: fmt.Errorf("%w: no edge %s -> %s", ErrMalformedRecord, src, dst)}
		}
		e.Cost = cost
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading matching file: %w", err)
	}

	for i := range g.nodes {
		if !updated[g.nodes[i].UID] {
			g.nodes[i].Cost = 0
		}
	}
	return nil
}

func parseMatchingLine(line string) (src, dst string, cost int64, err error) {
	line = strings.ReplaceAll(line, "%", "")
	open := strings.Index(line, "(")
	end := strings.Index(line, ")")
	if open < 0 || end < open {
		return "", "", 0, fmt.Errorf("%w: expected (src[, dst]) cost", ErrMalformedRecord)
	}

	labels := strings.Split(line[open+1:end], ",")
	if len(labels) > 2 {
		return "", "", 0, fmt.Errorf("%w: too many labels", ErrMalformedRecord)
	}
	src = strings.TrimSpace(labels[0])
	if len(labels) == 2 {
		dst = strings.TrimSpace(labels[1])
	}
	if src == "" {
		return "", "", 0, fmt.Errorf("%w: missing source label", ErrMalformedRecord)
	}

	rest := strings.TrimSpace(line[end+1:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	cost, err = strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: bad cost %q", ErrMalformedRecord, rest)
	}
	return src, dst, cost, nil
}
