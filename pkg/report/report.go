// Package report summarizes a source graph and the problem generated from it.
package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"

	"github.com/l3aro/go-wcet-smt/pkg/cfg"
)

// Format is an output format for reports.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMsgpack}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (use text, json, yaml or msgpack)", s)
}

// CutEntry describes one registered cut.
type CutEntry struct {
	Var  string `json:"var" yaml:"var" msgpack:"var"`
	Head string `json:"head" yaml:"head" msgpack:"head"`
	Tail string `json:"tail" yaml:"tail" msgpack:"tail"`
	Cost int64  `json:"cost" yaml:"cost" msgpack:"cost"`
}

// Report summarizes a graph: its size, the longest syntactic path, the
// number of paths and the cuts. Encoding is empty unless a problem was
// emitted.
type Report struct {
	Input       string     `json:"input,omitempty" yaml:"input,omitempty" msgpack:"input,omitempty"`
	Digest      string     `json:"digest,omitempty" yaml:"digest,omitempty" msgpack:"digest,omitempty"`
	Encoding    string     `json:"encoding,omitempty" yaml:"encoding,omitempty" msgpack:"encoding,omitempty"`
	Nodes       int        `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Edges       int        `json:"edges" yaml:"edges" msgpack:"edges"`
	Start       string     `json:"start" yaml:"start" msgpack:"start"`
	End         string     `json:"end" yaml:"end" msgpack:"end"`
	LongestPath int64      `json:"longest_path" yaml:"longest_path" msgpack:"longest_path"`
	Path        []string   `json:"path" yaml:"path" msgpack:"path"`
	Paths       string     `json:"paths" yaml:"paths" msgpack:"paths"`
	PathDigits  int        `json:"paths_digits" yaml:"paths_digits" msgpack:"paths_digits"`
	Cuts        []CutEntry `json:"cuts" yaml:"cuts" msgpack:"cuts"`
}

// Build computes the report of g. It does not register any cut.
func Build(g *cfg.Graph) (*Report, error) {
	r, err := g.LongestSyntacticPath(false)
	if err != nil {
		return nil, fmt.Errorf("longest syntactic path: %w", err)
	}
	paths, err := g.CountPaths(g.Start(), g.End())
	if err != nil {
		return nil, fmt.Errorf("counting paths: %w", err)
	}

	rep := &Report{
		Nodes:       g.NumNodes(),
		Edges:       g.NumEdges(),
		Start:       label(g, g.Start()),
		End:         label(g, g.End()),
		LongestPath: r.Cost,
		Paths:       paths.String(),
		PathDigits:  len(paths.String()),
		Cuts:        []CutEntry{},
	}
	for _, uid := range r.Path {
		rep.Path = append(rep.Path, label(g, uid))
	}
	for _, id := range g.CutIDs() {
		c, _ := g.Cut(id.Head, id.Tail)
		rep.Cuts = append(rep.Cuts, CutEntry{
			Var:  c.CostVar().Name,
			Head: label(g, id.Head),
			Tail: label(g, id.Tail),
			Cost: c.Cost,
		})
	}
	return rep, nil
}

// Digest returns the hex blake3 digest of an input.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WithInput records the input name and the digest of its contents.
func (r *Report) WithInput(name string, data []byte) *Report {
	r.Input = name
	r.Digest = Digest(data)
	return r
}

// WithStats records the encoding of an emitted problem.
func (r *Report) WithStats(s *cfg.EmitStats) *Report {
	if s != nil {
		r.Encoding = s.Encoding.String()
	}
	return r
}

func label(g *cfg.Graph, uid int) string {
	if n, ok := g.Node(uid); ok {
		return n.Label
	}
	return fmt.Sprint(uid)
}

// Write encodes the report to w.
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	case FormatText, "":
		return r.writeText(w)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// Read decodes a report written in a machine-readable format.
func Read(rd io.Reader, f Format) (*Report, error) {
	var r Report
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&r)
	case FormatYAML:
		err = yaml.NewDecoder(rd).Decode(&r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&r)
	default:
		return nil, fmt.Errorf("cannot read %s reports", f)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s report: %w", f, err)
	}
	return &r, nil
}

func (r *Report) writeText(w io.Writer) error {
	var sb strings.Builder
	if r.Input != "" {
		fmt.Fprintf(&sb, "=== WCET report: %s ===\n", r.Input)
	} else {
		sb.WriteString("=== WCET report ===\n")
	}
	if r.Digest != "" {
		fmt.Fprintf(&sb, "Digest: %s\n", r.Digest)
	}
	if r.Encoding != "" {
		fmt.Fprintf(&sb, "Encoding: %s\n", r.Encoding)
	}
	fmt.Fprintf(&sb, "Blocks: %s, edges: %s\n", humanize.Comma(int64(r.Nodes)), humanize.Comma(int64(r.Edges)))
	fmt.Fprintf(&sb, "Start: %s, end: %s\n", r.Start, r.End)
	fmt.Fprintf(&sb, "Longest syntactic path: %s\n", humanize.Comma(r.LongestPath))
	fmt.Fprintf(&sb, "  %s\n", strings.Join(r.Path, " -> "))
	fmt.Fprintf(&sb, "Paths: %s (%d digits)\n", commaString(r.Paths), r.PathDigits)
	fmt.Fprintf(&sb, "\nCuts (%d):\n", len(r.Cuts))
	for _, c := range r.Cuts {
		fmt.Fprintf(&sb, "  %s  %s -> %s  %s\n", c.Var, c.Head, c.Tail, humanize.Comma(c.Cost))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func commaString(n string) string {
	b, ok := new(big.Int).SetString(n, 10)
	if !ok {
		return n
	}
	return humanize.BigComma(b)
}
