package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-wcet-smt/internal/generator"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Generate problems for every input under a directory",
	Long: `Scans a directory for inputs (by default *.wcet, *.wcet.gz and *.wcet.zst,
honoring .wcetignore files) and generates one problem per input. A
<name>.matching or <name>.cuts file next to an input is used as its matching
or cuts file. Inputs unchanged since the last run are skipped.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		opts, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("output-dir")
		force, _ := cmd.Flags().GetBool("force")
		jobs, _ := cmd.Flags().GetInt("jobs")

		summary, err := generator.New(opts, logger).Batch(cmd.Context(), root, generator.BatchOptions{
			Include:   appConfig.Include,
			OutputDir: outDir,
			CacheDir:  appConfig.CacheDir,
			Force:     force,
			Jobs:      jobs,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, it := range summary.Items {
			switch {
			case it.Err != nil:
				fmt.Fprintf(out, "✗ %s: %v\n", it.Input, it.Err)
			case it.Skipped:
				fmt.Fprintf(out, "- %s (up to date)\n", it.Input)
			default:
				fmt.Fprintf(out, "✓ %s -> %s\n", it.Input, it.Output)
			}
		}

		generated, skipped, failed := summary.Counts()
		logger.Info("batch complete",
			"generated", generated,
			"skipped", skipped,
			"failed", failed,
			"pruned", summary.Pruned)
		if failed > 0 {
			return fmt.Errorf("%d of %d inputs failed", failed, len(summary.Items))
		}
		return nil
	},
}

func init() {
	addPipelineFlags(batchCmd)
	batchCmd.Flags().StringP("output-dir", "o", "", "Write problems under this directory instead of next to the inputs")
	batchCmd.Flags().Bool("force", false, "Regenerate inputs even when up to date")
	batchCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Concurrent generations")
}
