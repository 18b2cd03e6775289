package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-wcet-smt/internal/generator"
	"github.com/l3aro/go-wcet-smt/pkg/report"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Show graph statistics",
	Long: `Runs the generation pipeline on an input and prints a report instead of
the problem: graph size, longest syntactic path, number of paths and the cuts
that would be added.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		opts.MatchingFile, _ = cmd.Flags().GetString("matching")
		opts.CutsFile, _ = cmd.Flags().GetString("cuts")

		format, err := reportFormat(cmd)
		if err != nil {
			return err
		}

		res, err := generator.New(opts, logger).Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		r, err := report.Build(res.Graph)
		if err != nil {
			return fmt.Errorf("building report: %w", err)
		}
		r.WithInput(args[0], res.Raw).WithStats(res.Stats)
		return r.Write(cmd.OutOrStdout(), format)
	},
}

func init() {
	addPipelineFlags(inspectCmd)
	inspectCmd.Flags().String("matching", "", "Matching file overriding block and edge costs")
	inspectCmd.Flags().String("cuts", "", "Semantic cuts file")
	inspectCmd.Flags().StringP("format", "f", "", "Output format: text, json, yaml or msgpack")
}
