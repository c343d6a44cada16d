package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pymove/internal/config"
	"github.com/Sumatoshi-tech/pymove/internal/mcp"
)

// MCPCommand holds configuration for the MCP server command.
type MCPCommand struct {
	root       string
	configPath string
}

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	sc := &MCPCommand{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server for AI agent integration",
		Long: `Start a Model Context Protocol server on stdio transport.

The server exposes pymove as tools agents can discover and invoke:
  - move_symbol: move modules or symbols and rewrite references
  - preview_move: compute the diffs and diagnostics without writing`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          sc.run,
	}

	cmd.Flags().StringVarP(&sc.root, "root", "r", "", "Project root (default: config or cwd)")
	cmd.Flags().StringVar(&sc.configPath, "config", "", "Config file path")

	return cmd
}

func (sc *MCPCommand) run(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(sc.configPath)
	if err != nil {
		return err
	}

	root := sc.root
	if root == "" {
		root = cfg.Root
	}

	return mcp.NewServer(root, cfg).ServeStdio()
}
