// Package commands provides the CLI commands for the wcet tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-wcet-smt/internal/config"
	"github.com/l3aro/go-wcet-smt/internal/log"
)

var (
	// appConfig is loaded before every command except init.
	appConfig *config.Config
	logger    = log.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "wcet",
	Short: "wcet - WCET optimization problem generator",
	Long: `wcet encodes a loop-free control-flow graph with block costs into an
SMT-LIB2 optimization problem. The optimum of the problem is an upper
bound on the worst-case execution time of the code fragment.

Commands:
  generate    Generate the optimization problem for one input
  inspect     Show graph statistics (size, longest path, paths, cuts)
  doctor      Check the structural assumptions on a graph
  batch       Generate problems for every input under a directory
  init        Create a configuration file interactively

Use "wcet [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" {
			return nil
		}
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// setup loads the configuration and applies the global flags to it and to
// the logger.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")

	var (
		c   *config.Config
		err error
	)
	if path != "" {
		c, err = config.LoadFromFile(path)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("verbose") {
		c.Verbose, _ = cmd.Flags().GetBool("verbose")
	}
	if cmd.Flags().Changed("log-json") {
		c.LogJSON, _ = cmd.Flags().GetBool("log-json")
	}

	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetJSONOutput(c.LogJSON)
	if c.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	appConfig = c
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: ./.wcet/config.yaml over ~/.wcet/config.yaml)")
	RootCmd.PersistentFlags().Bool("verbose", false, "Verbose logging")
	RootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON lines")

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(initCmd)
}
