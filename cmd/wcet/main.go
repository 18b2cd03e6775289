// Package main implements the wcet CLI.
// It turns control-flow graphs annotated with block costs into SMT-LIB2
// optimization problems whose optimum bounds the worst-case execution time.
package main

import (
	"os"

	"github.com/l3aro/go-wcet-smt/cmd/wcet/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`wcet version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
