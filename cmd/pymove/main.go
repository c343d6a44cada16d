// Package main provides the entry point for the pymove CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pymove/cmd/pymove/commands"
	"github.com/Sumatoshi-tech/pymove/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pymove",
		Short: "pymove - move Python symbols and modules safely",
		Long: `pymove moves Python modules and symbols and rewrites every
reference in the project.

Commands:
  mv        Move modules or symbols
  mcp       Serve pymove over the Model Context Protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewMvCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, version.String())
		},
	}
}
