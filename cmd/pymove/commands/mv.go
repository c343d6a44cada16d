// Package commands implements CLI command handlers for pymove.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/pymove/internal/config"
	"github.com/Sumatoshi-tech/pymove/internal/diag"
	"github.com/Sumatoshi-tech/pymove/internal/move"
	"github.com/Sumatoshi-tech/pymove/internal/project"
	"github.com/Sumatoshi-tech/pymove/internal/rewrite"
	"github.com/Sumatoshi-tech/pymove/pkg/safeconv"
)

var (
	// ErrMissingNames is returned when mv gets fewer than two name
	// arguments and no batch file.
	ErrMissingNames = errors.New("mv needs at least an old and a new fullname")
	// ErrDiagnostics indicates the run finished but reported errors.
	ErrDiagnostics = errors.New("completed with errors")
	// ErrEmptyBatch indicates a batch file with no moves.
	ErrEmptyBatch = errors.New("batch file lists no moves")
)

// MvCommand holds configuration and dependencies for the mv command.
type MvCommand struct {
	root       string
	configPath string
	alias      string
	noAutomove bool
	dryRun     bool
	batchPath  string
	noColor    bool
}

// batchFile is the on-disk shape of --batch input.
type batchFile struct {
	Moves []batchMove `yaml:"moves"`
}

type batchMove struct {
	Old   []string `yaml:"old"`
	New   string   `yaml:"new"`
	Alias string   `yaml:"alias"`
}

// NewMvCommand creates the mv command.
func NewMvCommand() *cobra.Command {
	mc := &MvCommand{}

	cmd := &cobra.Command{
		Use:   "mv [old_fullname...] [new_fullname]",
		Short: "Move Python modules or symbols and rewrite every reference",
		Long: `Move modules or symbols to a new location and rewrite every
reference in the project, including imports, dotted uses, and mentions
in strings and comments.

Examples:
  pymove mv foo.myfunc bar.myfunc
  pymove mv foo.a foo.b bar
  pymove mv foo newfoo --dry-run
  pymove mv --batch moves.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: mc.run,
	}

	cmd.Flags().StringVarP(&mc.root, "root", "r", "", "Project root (default: config or cwd)")
	cmd.Flags().StringVar(&mc.configPath, "config", "", "Config file path (default: .pymove.yaml in cwd or $HOME)")
	cmd.Flags().StringVarP(&mc.alias, "alias", "a", "",
		"Spelling of inserted imports: AUTO, FROM, NONE, or an explicit alias")
	cmd.Flags().BoolVar(&mc.noAutomove, "no-automove", false, "Rewrite references only, leave definitions in place")
	cmd.Flags().BoolVarP(&mc.dryRun, "dry-run", "n", false, "Print diffs instead of writing files")
	cmd.Flags().StringVar(&mc.batchPath, "batch", "", "YAML file listing moves to run in order")
	cmd.Flags().BoolVar(&mc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (mc *MvCommand) run(cmd *cobra.Command, args []string) error {
	if mc.noColor {
		color.NoColor = true
	}

	cfg, err := config.LoadConfig(mc.configPath)
	if err != nil {
		return err
	}

	reqs, err := mc.buildRequests(cfg, args)
	if err != nil {
		return err
	}

	root := mc.root
	if root == "" {
		root = cfg.Root
	}

	tree := project.NewTree(root)
	cfg.ApplyToTree(tree)

	cache := project.NewParseCache(0)
	defer cache.Close()

	sink := diag.NewCollector()
	out := cmd.OutOrStdout()
	stats := diag.Stats{}

	for _, req := range reqs {
		res, runErr := move.New(tree, cache, sink).Run(cmd.Context(), req)
		if runErr != nil {
			return runErr
		}

		stats.FilesScanned += res.FilesScanned
		stats.FilesChanged += res.FilesChanged
		stats.BytesRead += safeconv.MustInt64ToUint64(res.BytesRead)

		if req.DryRun {
			printDiffs(out, res.Diffs)
		}
	}

	diag.Render(out, sink.Diagnostics(), stats)

	if len(reqs) > 1 {
		diag.RenderTable(out, sink.Diagnostics())
	}

	if sink.HasErrors() {
		return ErrDiagnostics
	}

	return nil
}

// buildRequests expands flags, config, and either the batch file or the
// positional arguments into the moves to run.
func (mc *MvCommand) buildRequests(cfg *config.Config,
	args []string,
) ([]move.Request, error) {
	base := move.Request{DryRun: mc.dryRun}
	cfg.ApplyToRequest(&base)

	if mc.noAutomove {
		base.Automove = false
	}

	applyAlias(&base, mc.alias)

	if mc.batchPath != "" {
		return loadBatch(mc.batchPath, base)
	}

	if len(args) < 2 {
		return nil, ErrMissingNames
	}

	req := base
	req.OldFullNames = args[:len(args)-1]
	req.NewFullName = args[len(args)-1]

	return []move.Request{req}, nil
}

// loadBatch reads a YAML move list, seeding every entry from base.
func loadBatch(path string, base move.Request) ([]move.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var bf batchFile
	if err = yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}

	if len(bf.Moves) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBatch, path)
	}

	reqs := make([]move.Request, 0, len(bf.Moves))

	for _, bm := range bf.Moves {
		req := base
		req.OldFullNames = bm.Old
		req.NewFullName = bm.New
		applyAlias(&req, bm.Alias)

		reqs = append(reqs, req)
	}

	return reqs, nil
}

// applyAlias interprets an alias value: a policy keyword picks the
// import spelling, anything else is an explicit local alias.
func applyAlias(req *move.Request, alias string) {
	switch strings.ToUpper(alias) {
	case "":
	case "AUTO":
		req.Policy = rewrite.PolicyAuto
	case "FROM":
		req.Policy = rewrite.PolicyFrom
	case "NONE":
		req.Policy = rewrite.PolicyNone
	default:
		req.Alias = alias
	}
}

func printDiffs(w io.Writer, diffs map[string]string) {
	paths := make([]string, 0, len(diffs))
	for p := range diffs {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	for _, p := range paths {
		fmt.Fprint(w, diffs[p])
	}

	if len(paths) > 0 {
		fmt.Fprintln(w)
	}
}
