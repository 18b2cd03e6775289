package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-wcet-smt/internal/config"
	"github.com/l3aro/go-wcet-smt/pkg/report"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize wcet configuration interactively",
	Long: `Guides you through setting up wcet configuration step by step.
Creates a config file with the default encoding, cut synthesis and batch
settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func runInit(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Encoding ===
	encoding := strconv.Itoa(cfg.Encoding)
	edgeImpliesNodes := cfg.EdgeImpliesNodes
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Encoding").
				Description("How the graph is projected into constraints").
				Options(
					huh.NewOption("Default (ite cost terms)", "0"),
					huh.NewOption("Assert-soft (weighted soft assertions)", "1"),
					huh.NewOption("Difference logic (distance variables)", "2"),
				).
				Value(&encoding),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Encoding, _ = strconv.Atoi(encoding)

	if cfg.Encoding == 2 {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Edge implies nodes").
					Description("Add (=> edge source) and (=> edge destination) constraints?").
					Value(&edgeImpliesNodes),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		cfg.EdgeImpliesNodes = edgeImpliesNodes
	}

	// === SECTION 2: Cuts and solver ===
	summaries := !cfg.NoSummaries
	recursive := cfg.RecursiveCuts
	timeout := strconv.Itoa(cfg.Timeout)
	produceModels := cfg.ProduceModels
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Cuts").
				Description("Add dominator cuts and the global cut to every problem?").
				Affirmative("Yes").
				Negative("No").
				Value(&summaries),
			huh.NewConfirm().
				Title("Recursive cuts").
				Description("Also derive cuts from the merge points of the graph?").
				Value(&recursive),
			huh.NewInput().
				Title("Solver timeout in seconds (0 for none)").
				Placeholder("0").
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 0 {
						return fmt.Errorf("enter a non-negative number of seconds")
					}
					return nil
				}).
				Value(&timeout),
			huh.NewConfirm().
				Title("Produce models").
				Description("Ask the solver for a model of the worst path?").
				Value(&produceModels),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.NoSummaries = !summaries
	cfg.RecursiveCuts = recursive && summaries
	cfg.Timeout, _ = strconv.Atoi(strings.TrimSpace(timeout))
	cfg.ProduceModels = produceModels

	// === SECTION 3: Reports and batch ===
	reportFormat := cfg.ReportFormat
	include := strings.Join(cfg.Include, ", ")
	var formatOptions []huh.Option[string]
	for _, f := range report.Formats {
		formatOptions = append(formatOptions, huh.NewOption(string(f), string(f)))
	}
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Report format").
				Description("Used by inspect and generate --report").
				Options(formatOptions...).
				Value(&reportFormat),
			huh.NewInput().
				Title("Batch input patterns (comma separated)").
				Placeholder(include).
				Value(&include),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.ReportFormat = reportFormat
	cfg.Include = nil
	for _, p := range strings.Split(include, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Include = append(cfg.Include, p)
		}
	}

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.wcet/config.yaml)", "project"),
					huh.NewOption("Global (~/.wcet/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path: %s\n", configPath)
	fmt.Fprintf(out, "Encoding: %d\n", cfg.Encoding)
	if cfg.Encoding == 2 {
		fmt.Fprintf(out, "Edge implies nodes: %t\n", cfg.EdgeImpliesNodes)
	}
	fmt.Fprintf(out, "Cuts: %t (recursive: %t)\n", !cfg.NoSummaries, cfg.RecursiveCuts)
	fmt.Fprintf(out, "Timeout: %ds\n", cfg.Timeout)
	fmt.Fprintf(out, "Produce models: %t\n", cfg.ProduceModels)
	fmt.Fprintf(out, "Report format: %s\n", cfg.ReportFormat)
	fmt.Fprintf(out, "Batch patterns: %s\n", strings.Join(cfg.Include, ", "))
	fmt.Fprintln(out, "================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)
	return nil
}
