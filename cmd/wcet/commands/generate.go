package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-wcet-smt/internal/generator"
	"github.com/l3aro/go-wcet-smt/pkg/cfg"
	"github.com/l3aro/go-wcet-smt/pkg/report"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <input>",
	Short: "Generate the optimization problem for one input",
	Long: `Reads a combined input (formula header, a "-------" separator line, then
the CFG dump), adds cuts, encodes the graph and prints the SMT-LIB2 problem.
Inputs may be gzip or zstd compressed.

Encodings:
  0  default (ite cost terms)
  1  assert-soft (weighted soft assertions)
  2  difference logic (distance variables)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		opts.MatchingFile, _ = cmd.Flags().GetString("matching")
		opts.CutsFile, _ = cmd.Flags().GetString("cuts")
		opts.LabelMapFile, _ = cmd.Flags().GetString("smt-matching")
		opts.LongestPathFile, _ = cmd.Flags().GetString("print-longest-syntactic")
		opts.CutListFile, _ = cmd.Flags().GetString("print-cuts-list")

		res, err := generator.New(opts, logger).Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if err := generator.WriteProblem(res.Env, output, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("writing problem: %w", err)
		}

		logger.Info("generated problem",
			"input", args[0],
			"encoding", res.Stats.Encoding,
			"cuts", res.Stats.Cuts,
			"longest_path", humanize.Comma(res.Stats.LongestPath),
			"paths", humanize.BigComma(res.Stats.Paths))

		reportPath, _ := cmd.Flags().GetString("report")
		if reportPath == "" {
			return nil
		}
		return writeReport(cmd, res, args[0], reportPath)
	},
}

// pipelineOptions merges the configuration with the pipeline flags that
// were set explicitly.
func pipelineOptions(cmd *cobra.Command) (generator.Options, error) {
	c := *appConfig
	flags := cmd.Flags()
	if flags.Changed("encoding") {
		c.Encoding, _ = flags.GetInt("encoding")
	}
	if flags.Changed("timeout") {
		c.Timeout, _ = flags.GetInt("timeout")
	}
	if flags.Changed("no-summaries") {
		c.NoSummaries, _ = flags.GetBool("no-summaries")
	}
	if flags.Changed("recursive-cuts") {
		c.RecursiveCuts, _ = flags.GetBool("recursive-cuts")
	}
	if flags.Changed("edge-implies-nodes") {
		c.EdgeImpliesNodes, _ = flags.GetBool("edge-implies-nodes")
	}
	if flags.Changed("produce-models") {
		c.ProduceModels, _ = flags.GetBool("produce-models")
	}

	enc, err := cfg.ParseEncoding(c.Encoding)
	if err != nil {
		return generator.Options{}, err
	}
	if c.Timeout < 0 {
		return generator.Options{}, fmt.Errorf("timeout must be non-negative, got %d", c.Timeout)
	}
	return generator.Options{
		Encoding:         enc,
		EdgeImpliesNodes: c.EdgeImpliesNodes,
		NoSummaries:      c.NoSummaries,
		RecursiveCuts:    c.RecursiveCuts,
		Timeout:          c.Timeout,
		ProduceModels:    c.ProduceModels,
	}, nil
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("encoding", "e", 0, "Encoding: 0 default, 1 assert-soft, 2 difference logic")
	cmd.Flags().IntP("timeout", "t", 0, "Solver timeout in seconds (0: none)")
	cmd.Flags().Bool("no-summaries", false, "Do not add cuts to the problem")
	cmd.Flags().Bool("recursive-cuts", false, "Add cuts derived from the merge points")
	cmd.Flags().Bool("edge-implies-nodes", false, "Difference logic: a taken edge implies its endpoints")
	cmd.Flags().Bool("produce-models", false, "Ask the solver for a model")
}

// writeReport writes the report of res to path, or to stderr for "-".
func writeReport(cmd *cobra.Command, res *generator.Result, input, path string) error {
	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}
	r, err := report.Build(res.Graph)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}
	r.WithInput(input, res.Raw).WithStats(res.Stats)

	var w io.Writer = cmd.ErrOrStderr()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := r.Write(w, format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// reportFormat resolves --format against the configured report format.
func reportFormat(cmd *cobra.Command) (report.Format, error) {
	name := appConfig.ReportFormat
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		name = f.Value.String()
	}
	return report.ParseFormat(name)
}

func init() {
	addPipelineFlags(generateCmd)
	generateCmd.Flags().String("matching", "", "Matching file overriding block and edge costs")
	generateCmd.Flags().String("cuts", "", "Semantic cuts file")
	generateCmd.Flags().String("smt-matching", "", "Write the block variable to label map to this file")
	generateCmd.Flags().String("print-longest-syntactic", "", "Write the longest syntactic path to this file")
	generateCmd.Flags().String("print-cuts-list", "", "Write the cut list to this file")
	generateCmd.Flags().StringP("output", "o", "", "Write the problem to this file instead of stdout")
	generateCmd.Flags().String("report", "", `Write a report to this file ("-" for stderr)`)
	generateCmd.Flags().StringP("format", "f", "", "Report format: text, json, yaml or msgpack")
}
