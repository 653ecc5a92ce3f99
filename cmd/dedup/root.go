package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dedup/pkg/config"
	"github.com/arthur-debert/dedup/pkg/dedup"
	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/logging"
	"github.com/arthur-debert/dedup/pkg/report"
	"github.com/arthur-debert/dedup/pkg/types"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootFlags struct {
	verbosity  int
	action     string
	moveTo     string
	dryRun     bool
	minSize    int64
	maxSize    int64
	includeExt []string
	excludeExt []string
	yes        bool
	threads    int
	configPath string
}

// NewRootCmd builds the dedup command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "dedup DIR [DIR...]",
		Short: "Find and remove duplicate files",
		Long: `dedup scans one or more directories for files with identical content
and reports or removes the duplicates. The first file discovered in each
group is kept; the rest can be deleted, moved aside, or replaced with
hard or symbolic links to the kept copy.`,
		Args: cobra.MinimumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
	}

	cmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v",
		"Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"Config file (default: dedup.toml or dedup.yaml in the working directory)")

	cmd.Flags().StringVarP(&flags.action, "action", "a", "",
		"What to do with duplicates: list, delete, move, hardlink, symlink (default list)")
	cmd.Flags().StringVar(&flags.moveTo, "move-to", "",
		"Directory to move duplicates into (required with --action move)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false,
		"Preview changes without executing them")
	cmd.Flags().Int64Var(&flags.minSize, "min-size", 0,
		"Ignore files smaller than this many bytes")
	cmd.Flags().Int64Var(&flags.maxSize, "max-size", 0,
		"Ignore files larger than this many bytes (0 means no limit)")
	cmd.Flags().StringSliceVar(&flags.includeExt, "include-ext", nil,
		"Only consider files with these extensions")
	cmd.Flags().StringSliceVar(&flags.excludeExt, "exclude-ext", nil,
		"Skip files with these extensions")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false,
		"Skip the confirmation prompt before destructive actions")
	cmd.Flags().IntVar(&flags.threads, "threads", 0,
		"Hashing worker count (0 uses all CPUs)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenConfigCmd())

	return cmd
}

// buildScanConfig merges file/env defaults with command line flags.
// A flag set on the command line always wins over the config file.
func buildScanConfig(cmd *cobra.Command, args []string, flags *rootFlags) (*config.ScanConfig, error) {
	fileCfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	cfg := &config.ScanConfig{
		Roots:       args,
		MoveTo:      fileCfg.MoveTo,
		DryRun:      fileCfg.DryRun,
		MinSize:     fileCfg.MinSize,
		MaxSize:     fileCfg.MaxSize,
		IncludeExt:  config.ExtSet(fileCfg.IncludeExt),
		ExcludeExt:  config.ExtSet(fileCfg.ExcludeExt),
		SkipConfirm: flags.yes,
		Threads:     fileCfg.Threads,
	}

	actionName := fileCfg.Action
	if cmd.Flags().Changed("action") {
		actionName = flags.action
	}
	cfg.Action, err = types.ParseAction(actionName)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("move-to") {
		cfg.MoveTo = flags.moveTo
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if cmd.Flags().Changed("min-size") {
		cfg.MinSize = flags.minSize
	}
	if cmd.Flags().Changed("max-size") {
		cfg.MaxSize = flags.maxSize
	}
	if cmd.Flags().Changed("include-ext") {
		cfg.IncludeExt = config.ExtSet(flags.includeExt)
	}
	if cmd.Flags().Changed("exclude-ext") {
		cfg.ExcludeExt = config.ExtSet(flags.excludeExt)
	}
	if cmd.Flags().Changed("threads") {
		cfg.Threads = flags.threads
	}

	return cfg, cfg.Validate()
}

func runScan(cmd *cobra.Command, args []string, flags *rootFlags) error {
	logger := logging.GetLogger("cmd.dedup")

	cfg, err := buildScanConfig(cmd, args, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := isatty.IsTerminal(os.Stdout.Fd())
	reporter := report.NewConsole(cmd.OutOrStdout(), !interactive)
	reporter.SetVerbose(flags.verbosity > 0)

	opts := dedup.Options{Reporter: reporter}
	if interactive {
		opts.HashProgress = newHashProgress(cmd)
	}

	logger.Info().
		Strs("roots", cfg.Roots).
		Str("action", cfg.Action.String()).
		Bool("dryRun", cfg.DryRun).
		Msg("Starting scan")

	result, err := dedup.Scan(ctx, cfg, opts)
	if err != nil {
		return err
	}

	if cfg.Action == types.ActionList {
		reporter.RenderAnalysis(report.Analyze(result.Groups))
	}

	if cfg.Action.Mutates() && !cfg.DryRun && len(result.Groups) > 0 {
		ok, err := confirmMutation(cfg, result, interactive)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	return dedup.Apply(ctx, cfg, result, opts)
}

// confirmMutation asks before touching the filesystem. Non-interactive
// runs must pass --yes explicitly.
func confirmMutation(cfg *config.ScanConfig, result *dedup.ScanResult, interactive bool) (bool, error) {
	if cfg.SkipConfirm {
		return true, nil
	}
	if !interactive {
		return false, errors.New(errors.ErrConfigInvalid,
			"refusing to modify files without a terminal; pass --yes to proceed")
	}

	prompt := fmt.Sprintf("%s %d duplicate file(s), reclaiming %s?",
		cfg.Action.String(), result.Report.Duplicates,
		report.FormatBytes(result.Report.BytesReclaimable))
	return pterm.DefaultInteractiveConfirm.Show(prompt)
}

// newHashProgress returns a progress callback backed by a pterm bar.
func newHashProgress(cmd *cobra.Command) func(done, total int) {
	var (
		mu  sync.Mutex
		bar *pterm.ProgressbarPrinter
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar, _ = pterm.DefaultProgressbar.
				WithTotal(total).
				WithTitle("Hashing").
				WithWriter(cmd.OutOrStdout()).
				Start()
		}
		bar.Increment()
		if done >= total {
			_, _ = bar.Stop()
			bar = nil
		}
	}
}

func printError(err error) {
	if code := errors.GetErrorCode(err); code != "" {
		fmt.Fprintf(os.Stderr, "%s Error [%s]: %s\n",
			pterm.Error.Prefix.Text, pterm.Error.MessageStyle.Sprint(string(code)), err.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n",
		pterm.Error.Prefix.Text, pterm.Error.MessageStyle.Sprint(err.Error()))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dedup version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
		},
	}
}
