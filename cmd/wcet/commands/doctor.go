package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-wcet-smt/internal/healthcheck"
	"github.com/l3aro/go-wcet-smt/internal/input"
	"github.com/l3aro/go-wcet-smt/pkg/cfg"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor <input>",
	Short: "Check the structural assumptions on a graph",
	Long: `Rebuilds the graph of an input independently and checks what generation
relies on: no loops, the end block reachable from the start block, declared
dominators matching the computed ones. Dead ends and unreachable blocks are
reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		combined, _, err := input.ReadCombined(args[0])
		if err != nil {
			return err
		}
		g, err := cfg.Parse(combined.Graph)
		if err != nil {
			return err
		}

		result, err := healthcheck.Check(g)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		format, _ := cmd.Flags().GetString("format")
		if err := displayDoctorResult(cmd.OutOrStdout(), args[0], result, format); err != nil {
			return err
		}

		if !result.Healthy() {
			return fmt.Errorf("health check failed: %s violates generation assumptions", args[0])
		}
		return nil
	},
}

func displayDoctorResult(w io.Writer, name string, result *healthcheck.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", format)
	}

	fmt.Fprintf(w, "Graph: %s (%d blocks, %d edges)\n\n", name, result.Nodes, result.Edges)
	for _, f := range result.Findings {
		fmt.Fprintf(w, "  %s %-13s %s\n", formatStatusIcon(f.Status), f.Check, f.Status)
		if f.Detail != "" {
			fmt.Fprintf(w, "      %s\n", f.Detail)
		}
	}
	return nil
}

func formatStatusIcon(status healthcheck.Status) string {
	switch status {
	case healthcheck.StatusOK:
		return "✓"
	case healthcheck.StatusWarn:
		return "◐"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	doctorCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
}
