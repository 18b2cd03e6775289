// Package generator runs the full pipeline that turns a combined input
// (formula header, separator, CFG dump) into an optimization problem.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/l3aro/go-wcet-smt/internal/input"
	"github.com/l3aro/go-wcet-smt/internal/log"
	"github.com/l3aro/go-wcet-smt/pkg/cfg"
	"github.com/l3aro/go-wcet-smt/pkg/smt"
)

// Options selects what the pipeline adds to the problem and which side
// files it writes. Empty file names disable the corresponding step.
type Options struct {
	Encoding         cfg.Encoding
	EdgeImpliesNodes bool
	NoSummaries      bool
	RecursiveCuts    bool
	Timeout          int
	ProduceModels    bool

	MatchingFile string
	CutsFile     string

	LabelMapFile    string
	LongestPathFile string
	CutListFile     string
}

// Result is a generated problem together with the graph it encodes.
type Result struct {
	Env   *smt.Environment
	Graph *cfg.Graph
	Stats *cfg.EmitStats
	// Raw is the decoded input, kept for digests.
	Raw []byte
	// DominatorCuts and SemanticCuts count the cuts each synthesis step added.
	DominatorCuts int
	SemanticCuts  int
}

// Generator runs the pipeline with fixed options.
type Generator struct {
	opts   Options
	logger log.Logger
}

// New creates a Generator. A nil logger discards everything.
func New(opts Options, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.Discard{}
	}
	return &Generator{opts: opts, logger: logger}
}

// Run reads the combined input at path and generates its problem.
func (g *Generator) Run(ctx context.Context, path string) (*Result, error) {
	combined, raw, err := input.ReadCombined(path)
	if err != nil {
		return nil, err
	}
	res, err := g.Generate(ctx, combined)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Raw = raw
	return res, nil
}

// Generate builds the problem for an already split input.
func (g *Generator) Generate(ctx context.Context, in input.Combined) (*Result, error) {
	env := smt.NewEnvironment()
	if err := env.LoadHeader(in.Header); err != nil {
		return nil, fmt.Errorf("loading formula header: %w", err)
	}

	graph, err := cfg.Parse(in.Graph)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("parsed graph", "nodes", graph.NumNodes(), "edges", graph.NumEdges())

	if g.opts.MatchingFile != "" {
		data, err := input.ReadFile(g.opts.MatchingFile)
		if err != nil {
			return nil, fmt.Errorf("matching file: %w", err)
		}
		if err := graph.ApplyMatching(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		g.logger.Debug("applied matching", "file", g.opts.MatchingFile)
	}

	res := &Result{Env: env, Graph: graph}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !g.opts.NoSummaries {
		if err := g.addCuts(res); err != nil {
			return nil, err
		}
	}

	if err := g.writeDumps(graph); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, err := graph.Emit(env, g.opts.Encoding, cfg.EmitOptions{EdgeImpliesNodes: g.opts.EdgeImpliesNodes})
	if err != nil {
		return nil, fmt.Errorf("emitting %s encoding: %w", g.opts.Encoding, err)
	}
	res.Stats = stats

	if g.opts.Timeout > 0 {
		env.SetOption("timeout", strconv.Itoa(g.opts.Timeout)+".0")
	}
	if g.opts.ProduceModels {
		env.SetOption("produce-models", true)
	}

	g.logger.Debug("emitted problem",
		"encoding", stats.Encoding,
		"cuts", stats.Cuts,
		"longest_path", stats.LongestPath,
		"paths", stats.Paths.String())
	return res, nil
}

// addCuts adds dominator cuts, semantic cuts (from file, then recursive)
// and finally the global start-to-end cut.
func (g *Generator) addCuts(res *Result) error {
	graph := res.Graph
	n, err := graph.AddDominatorCuts()
	if err != nil {
		return err
	}
	res.DominatorCuts = n

	var gens []cfg.Generation
	if g.opts.CutsFile != "" {
		data, err := input.ReadFile(g.opts.CutsFile)
		if err != nil {
			return fmt.Errorf("cuts file: %w", err)
		}
		fromFile, err := graph.ReadSemanticCuts(bytes.NewReader(data))
		if err != nil {
			return err
		}
		gens = append(gens, fromFile...)
	}
	if g.opts.RecursiveCuts {
		recursive, err := graph.RecursiveCuts()
		if err != nil {
			return err
		}
		gens = append(gens, recursive...)
	}
	n, err = graph.AddSemanticCuts(gens)
	if err != nil {
		return err
	}
	res.SemanticCuts = n

	if _, err := graph.LongestSyntacticPath(true); err != nil {
		return err
	}
	g.logger.Debug("added cuts", "dominator", res.DominatorCuts, "semantic", res.SemanticCuts, "total", graph.NumCuts())
	return nil
}

func (g *Generator) writeDumps(graph *cfg.Graph) error {
	dumps := []struct {
		path  string
		write func(io.Writer) error
	}{
		{g.opts.LabelMapFile, graph.WriteLabelMap},
		{g.opts.LongestPathFile, graph.WriteLongestPath},
		{g.opts.CutListFile, graph.WriteCutList},
	}
	for _, d := range dumps {
		if d.path == "" {
			continue
		}
		if err := writeFile(d.path, d.write); err != nil {
			return err
		}
		g.logger.Debug("wrote dump", "file", d.path)
	}
	return nil
}

// writeFile creates path, and its parent directory, and fills it with write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return &input.ResourceError{Name: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteProblem prints env to path, or to w when path is empty.
func WriteProblem(env *smt.Environment, path string, w io.Writer) error {
	if path == "" {
		_, err := env.WriteTo(w)
		return err
	}
	return writeFile(path, func(out io.Writer) error {
		_, err := env.WriteTo(out)
		return err
	})
}
