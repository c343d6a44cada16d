package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sumatoshi-tech/pymove/internal/diag"
	"github.com/Sumatoshi-tech/pymove/internal/move"
	"github.com/Sumatoshi-tech/pymove/internal/project"
	"github.com/Sumatoshi-tech/pymove/pkg/safeconv"
)

func moveSymbolTool() mcp.Tool {
	return mcp.NewTool("move_symbol",
		mcp.WithDescription("Move Python modules or symbols to a new location "+
			"and rewrite every reference in the project"),
		mcp.WithString("old_names",
			mcp.Required(),
			mcp.Description("Comma-separated fullnames to move, "+
				"e.g. 'foo.myfunc' or 'foo.a,foo.b'"),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("Destination fullname or module, e.g. 'bar.myfunc' or 'bar'"),
		),
		mcp.WithString("alias",
			mcp.Description("Spell rewritten references through this alias"),
		),
		mcp.WithBoolean("automove",
			mcp.Description("Relocate the definitions as well as the references; "+
				"defaults to the configured value"),
		),
	)
}

func previewMoveTool() mcp.Tool {
	return mcp.NewTool("preview_move",
		mcp.WithDescription("Compute the diffs and diagnostics of a move "+
			"without writing anything"),
		mcp.WithString("old_names",
			mcp.Required(),
			mcp.Description("Comma-separated fullnames to move"),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("Destination fullname or module"),
		),
		mcp.WithString("alias",
			mcp.Description("Spell rewritten references through this alias"),
		),
		mcp.WithBoolean("automove",
			mcp.Description("Relocate the definitions as well as the references; "+
				"defaults to the configured value"),
		),
	)
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runMove(ctx, request, false)
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runMove(ctx, request, true)
}

func (s *Server) runMove(ctx context.Context, request mcp.CallToolRequest,
	dryRun bool,
) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	oldNames, ok := args["old_names"].(string)
	if !ok || strings.TrimSpace(oldNames) == "" {
		return mcp.NewToolResultError("old_names is required"), nil
	}

	newName, ok := args["new_name"].(string)
	if !ok || strings.TrimSpace(newName) == "" {
		return mcp.NewToolResultError("new_name is required"), nil
	}

	req := move.Request{DryRun: dryRun}
	s.cfg.ApplyToRequest(&req)

	req.OldFullNames = splitNames(oldNames)
	req.NewFullName = strings.TrimSpace(newName)

	if alias, aliasOK := args["alias"].(string); aliasOK {
		req.Alias = alias
	}

	if automove, autoOK := args["automove"].(bool); autoOK {
		req.Automove = automove
	}

	tree := project.NewTree(s.root)
	s.cfg.ApplyToTree(tree)

	cache := project.NewParseCache(0)
	defer cache.Close()

	sink := diag.NewCollector()

	res, err := move.New(tree, cache, sink).Run(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("move failed: %v", err)), nil
	}

	return mcp.NewToolResultText(renderReport(res, sink, dryRun)), nil
}

func renderReport(res *move.Result, sink *diag.Collector, dryRun bool) string {
	var b strings.Builder

	if dryRun {
		paths := make([]string, 0, len(res.Diffs))
		for p := range res.Diffs {
			paths = append(paths, p)
		}

		sort.Strings(paths)

		for _, p := range paths {
			b.WriteString(res.Diffs[p])
		}

		if len(paths) > 0 {
			b.WriteString("\n")
		}
	}

	diag.Render(&b, sink.Diagnostics(), diag.Stats{
		FilesScanned: res.FilesScanned,
		FilesChanged: res.FilesChanged,
		BytesRead:    safeconv.MustInt64ToUint64(res.BytesRead),
	})

	return b.String()
}

func splitNames(names string) []string {
	parts := strings.Split(names, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
