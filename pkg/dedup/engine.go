// Package dedup is the engine driver: it wires the collector, hasher,
// grouper, planner, and executor into one run, owns the run report, and
// feeds events to the reporter.
//
// The pipeline is split into Scan and Apply so a CLI can show results and
// ask for confirmation between the read-only half and the mutating half.
package dedup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/arthur-debert/dedup/pkg/config"
	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/executor"
	"github.com/arthur-debert/dedup/pkg/filesystem"
	"github.com/arthur-debert/dedup/pkg/grouper"
	"github.com/arthur-debert/dedup/pkg/hasher"
	"github.com/arthur-debert/dedup/pkg/logging"
	"github.com/arthur-debert/dedup/pkg/paths"
	"github.com/arthur-debert/dedup/pkg/planner"
	"github.com/arthur-debert/dedup/pkg/scanner"
	"github.com/arthur-debert/dedup/pkg/types"
)

// Options carries the injectable collaborators. Zero values mean the OS
// filesystem and no reporting.
type Options struct {
	FS       types.FS
	Reporter types.Reporter

	// HashProgress, when non-nil, is called after each candidate is
	// hashed with the running completion count. Used for progress bars.
	HashProgress func(done, total int)
}

func (o Options) fsys() types.FS {
	if o.FS == nil {
		return filesystem.NewOS()
	}
	return o.FS
}

func (o Options) reporter() types.Reporter {
	if o.Reporter == nil {
		return types.NopReporter{}
	}
	return o.Reporter
}

// ScanResult is the read-only half of a run: everything learned about the
// tree, before any mutation.
type ScanResult struct {
	Entries []types.FileEntry
	Groups  []types.DuplicateGroup
	Report  *types.RunReport
}

// Scan collects candidates, hashes the ones that could possibly have a
// duplicate, and groups them. Nothing is mutated. Files with a unique size
// are never hashed.
func Scan(ctx context.Context, cfg *config.ScanConfig, opts Options) (*ScanResult, error) {
	logger := logging.GetLogger("dedup")
	start := time.Now()
	defer logging.LogDuration(start, "scan")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fsys := opts.fsys()
	reporter := opts.reporter()
	report := &types.RunReport{}

	entries, stats, err := scanner.Collect(ctx, cfg, fsys)
	if err != nil {
		return nil, err
	}
	report.FilesScanned = stats.Collected
	report.FilesSkipped = stats.Skipped
	for _, e := range entries {
		reporter.FileScanned(e)
	}

	candidates, uniques := grouper.SizeBuckets(entries)
	logger.Debug().
		Int("candidates", len(candidates)).
		Int("unique_sizes", uniques).
		Msg("Size bucketing complete")

	var progress func(types.FileEntry, error)
	if opts.HashProgress != nil {
		total := len(candidates)
		var done atomic.Int64
		progress = func(types.FileEntry, error) {
			opts.HashProgress(int(done.Add(1)), total)
		}
	}

	pool := hasher.NewPool(fsys, cfg.ThreadCount())
	hashed, hashSkipped := pool.HashAll(ctx, candidates, progress)
	report.FilesSkipped += hashSkipped
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCancelled, "run aborted during hashing")
	}

	groups := grouper.Group(hashed)
	report.GroupsFound = len(groups)
	for _, g := range groups {
		report.Duplicates += len(g.Members) - 1
		report.BytesReclaimable += g.WastedBytes()
		reporter.GroupFound(g)
	}

	logger.Info().
		Int("files", report.FilesScanned).
		Int("groups", report.GroupsFound).
		Int64("reclaimable", report.BytesReclaimable).
		Msg("Scan complete")

	return &ScanResult{Entries: entries, Groups: groups, Report: report}, nil
}

// Apply plans and executes the configured action over the scan result,
// filling the result's report with per-intent outcomes. For List it only
// emits the summary. An invalid move target is fatal before any mutation.
func Apply(ctx context.Context, cfg *config.ScanConfig, result *ScanResult, opts Options) error {
	fsys := opts.fsys()
	reporter := opts.reporter()

	if !cfg.Action.Mutates() {
		reporter.Summary(result.Report)
		return nil
	}

	if cfg.Action == types.ActionMove {
		if err := ensureMoveTarget(fsys, cfg); err != nil {
			return err
		}
	}

	intents, err := planner.Plan(result.Groups, cfg.Action, planner.Options{
		MoveTo:       cfg.MoveTo,
		TargetExists: paths.StatExists(fsys),
	})
	if err != nil {
		return err
	}

	executor.Execute(ctx, intents, result.Report, executor.Options{
		FS:       fsys,
		DryRun:   cfg.DryRun,
		Workers:  cfg.ThreadCount(),
		Reporter: reporter,
	})

	reporter.Summary(result.Report)
	return nil
}

// Run is Scan followed immediately by Apply, for callers that need no
// confirmation step.
func Run(ctx context.Context, cfg *config.ScanConfig, opts Options) (*types.RunReport, error) {
	result, err := Scan(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := Apply(ctx, cfg, result, opts); err != nil {
		return result.Report, err
	}
	return result.Report, nil
}

// ensureMoveTarget validates the move destination up front. In a live run
// the directory is created; in a dry run it must merely not be a file.
func ensureMoveTarget(fsys types.FS, cfg *config.ScanConfig) error {
	if info, err := fsys.Stat(cfg.MoveTo); err == nil {
		if !info.IsDir() {
			return errors.Newf(errors.ErrMoveTarget, "move target %s is not a directory", cfg.MoveTo)
		}
		return nil
	}
	if cfg.DryRun {
		return nil
	}
	if err := fsys.MkdirAll(cfg.MoveTo, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrMoveTarget, "cannot create move target %s", cfg.MoveTo)
	}
	return nil
}
