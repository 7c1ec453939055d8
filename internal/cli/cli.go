// Package cli wires the cobra command tree for the minit executable.
//
// Grounded on the teacher's cli.cli (cli/cli.go): a single rootCmd built in
// init(), subcommands registered by AddCommand, Execute() as the sole public
// entry point. The teacher's command set (forge, timeline, gather, seal, ...)
// is replaced wholesale by spec §6's CLI surface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var showVersion bool

var rootCmd = &cobra.Command{
	Use:   "minit",
	Short: "minit is a minimal content-addressed version-control engine",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Printf("minit version %s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print the minit version")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(hashObjectCmd)
	rootCmd.AddCommand(catFileCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(lsTreeCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(showRefCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(revParseCmd)
}
