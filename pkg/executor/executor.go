// Package executor applies mutation intents to the filesystem, or
// simulates them in dry-run mode.
//
// Two guarantees shape everything here. First, per-intent isolation: a
// failing intent is recorded and the run carries on; outcomes are terminal
// (no retries, since silently retrying a failed filesystem mutation risks
// compounding damage). Second, at-least-one-copy availability: the link
// actions create the replacement link at a temporary sibling path first
// and only then rename it over the duplicate, so a resolvable copy of the
// content exists at every instant. The duplicate is never deleted before
// its replacement exists.
package executor

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/hasher"
	"github.com/arthur-debert/dedup/pkg/logging"
	"github.com/arthur-debert/dedup/pkg/paths"
	"github.com/arthur-debert/dedup/pkg/types"
)

// Options configures execution.
type Options struct {
	FS       types.FS
	DryRun   bool
	Workers  int // concurrency across groups; intents of one group run serially
	Reporter types.Reporter
}

// Execute applies every intent and records an outcome for each into
// report. Intents sharing a keeper belong to the same group and are
// serialized relative to each other: a duplicate must not be replaced
// while another worker could still be reading the keeper for post-copy
// verification. Distinct groups run concurrently.
//
// Cancelling ctx stops new intents from being issued; the in-flight ones
// finish, and every unissued intent is recorded as skipped.
func Execute(ctx context.Context, intents []types.MutationIntent, report *types.RunReport, opts Options) {
	logger := logging.GetLogger("executor")

	reporter := opts.Reporter
	if reporter == nil {
		reporter = types.NopReporter{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	groups := groupByKeeper(intents)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, groupIntents := range groups {
		g.Go(func() error {
			for _, intent := range groupIntents {
				var outcome types.ActionOutcome
				if ctx.Err() != nil {
					outcome = types.ActionOutcome{
						Intent: intent,
						Status: types.OutcomeSkipped,
						Reason: "cancelled",
					}
				} else {
					outcome = executeOne(opts.FS, intent, opts.DryRun)
				}
				if outcome.Status == types.OutcomeFailed {
					logger.Error().
						Err(outcome.Err).
						Str("action", intent.Action.String()).
						Str("source", intent.Source).
						Msg("Intent failed")
				}
				report.AddOutcome(outcome)
				reporter.ActionOutcome(outcome)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// groupByKeeper partitions intents into per-keeper batches, preserving
// the planner's ordering within each batch.
func groupByKeeper(intents []types.MutationIntent) [][]types.MutationIntent {
	byKeeper := map[string]int{}
	var groups [][]types.MutationIntent
	for _, intent := range intents {
		idx, ok := byKeeper[intent.Keeper]
		if !ok {
			idx = len(groups)
			byKeeper[intent.Keeper] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], intent)
	}
	return groups
}

// executeOne runs a single intent through its state machine:
// Pending → Applied | Skipped(reason) | Failed(error).
func executeOne(fsys types.FS, intent types.MutationIntent, dryRun bool) types.ActionOutcome {
	start := time.Now()
	outcome := types.ActionOutcome{Intent: intent, Status: types.OutcomePending}

	if dryRun {
		outcome = probe(fsys, intent)
	} else {
		switch intent.Action {
		case types.ActionDelete:
			outcome = doDelete(fsys, intent)
		case types.ActionMove:
			outcome = doMove(fsys, intent)
		case types.ActionHardlink, types.ActionSymlink:
			outcome = doLink(fsys, intent)
		default:
			outcome.Status = types.OutcomeFailed
			outcome.Err = errors.Newf(errors.ErrInternal, "unexpected action %s", intent.Action)
		}
	}

	outcome.Duration = time.Since(start)
	return outcome
}

// probe checks an intent for feasibility without mutating anything. The
// outcome is Skipped("dry-run") when the intent would be attempted, and
// Failed when it could not possibly succeed.
func probe(fsys types.FS, intent types.MutationIntent) types.ActionOutcome {
	outcome := types.ActionOutcome{Intent: intent}

	if _, err := fsys.Lstat(intent.Source); err != nil {
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrFileAccess, "duplicate %s is gone", intent.Source)
		return outcome
	}

	if intent.Action == types.ActionHardlink || intent.Action == types.ActionSymlink {
		if _, err := fsys.Stat(intent.Keeper); err != nil {
			outcome.Status = types.OutcomeFailed
			outcome.Err = errors.Wrapf(err, errors.ErrFileAccess, "keeper %s is unreadable", intent.Keeper)
			return outcome
		}
	}

	outcome.Status = types.OutcomeSkipped
	outcome.Reason = "dry-run"
	return outcome
}

func doDelete(fsys types.FS, intent types.MutationIntent) types.ActionOutcome {
	outcome := types.ActionOutcome{Intent: intent}

	info, err := fsys.Lstat(intent.Source)
	if err != nil {
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrDeleteFail, "cannot stat %s", intent.Source)
		return outcome
	}
	if err := fsys.Remove(intent.Source); err != nil {
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrDeleteFail, "cannot delete %s", intent.Source)
		return outcome
	}

	outcome.Status = types.OutcomeApplied
	outcome.Reclaimed = info.Size()
	return outcome
}

func doMove(fsys types.FS, intent types.MutationIntent) types.ActionOutcome {
	outcome := types.ActionOutcome{Intent: intent}

	info, err := fsys.Lstat(intent.Source)
	if err != nil {
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrMoveFail, "cannot stat %s", intent.Source)
		return outcome
	}

	targetDir := filepath.Dir(intent.Target)
	if err := fsys.MkdirAll(targetDir, 0o755); err != nil {
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrMoveFail, "cannot create %s", targetDir)
		return outcome
	}

	// The plan's target was collision-free at planning time; re-resolve in
	// case something appeared since. The colliding file is never
	// overwritten. The outcome records where the file actually went.
	target := paths.NextAvailable(intent.Target, paths.StatExists(fsys))
	outcome.Intent.Target = target

	if err := fsys.Rename(intent.Source, target); err != nil {
		// Rename is not available across volumes; fall back to a verified
		// copy, deleting the source only after the copy checks out.
		if err := copyVerified(fsys, intent.Source, target, info.Size()); err != nil {
			outcome.Status = types.OutcomeFailed
			outcome.Err = err
			return outcome
		}
		if err := fsys.Remove(intent.Source); err != nil {
			outcome.Status = types.OutcomeFailed
			outcome.Err = errors.Wrapf(err, errors.ErrMoveFail,
				"copied %s to %s but could not remove the source", intent.Source, target)
			return outcome
		}
	}

	outcome.Status = types.OutcomeApplied
	outcome.Reclaimed = info.Size()
	return outcome
}

// copyVerified copies source to target and verifies size and digest before
// reporting success. On any failure the partial target is removed and the
// source is left untouched: a failed copy must never cost the user data.
func copyVerified(fsys types.FS, source, target string, wantSize int64) error {
	srcDigest, written, err := copyHashing(fsys, source, target)
	if err != nil {
		_ = fsys.Remove(target)
		return errors.Wrapf(err, errors.ErrMoveFail, "copy %s to %s failed", source, target)
	}
	if written != wantSize {
		_ = fsys.Remove(target)
		return errors.Newf(errors.ErrIntegrity,
			"short copy of %s: wrote %d of %d bytes", source, written, wantSize)
	}

	targetDigest, err := hasher.Hash(fsys, target)
	if err != nil {
		_ = fsys.Remove(target)
		return errors.Wrapf(err, errors.ErrIntegrity, "cannot verify copy at %s", target)
	}
	if targetDigest != srcDigest {
		_ = fsys.Remove(target)
		return errors.Newf(errors.ErrIntegrity,
			"digest mismatch copying %s to %s", source, target)
	}
	return nil
}

// copyHashing streams source into target, returning the source digest and
// byte count observed during the copy.
func copyHashing(fsys types.FS, source, target string) (types.Digest, int64, error) {
	var digest types.Digest

	src, err := fsys.Open(source)
	if err != nil {
		return digest, 0, err
	}
	defer func() { _ = src.Close() }()

	dst, err := fsys.Create(target)
	if err != nil {
		return digest, 0, err
	}

	h := hasher.NewStream()
	written, err := io.Copy(io.MultiWriter(dst, h), src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return digest, written, err
	}
	return h.Digest(), written, nil
}

// doLink replaces a duplicate with a hard or symbolic link to the keeper.
// Ordering is create-then-replace: build the link at a temporary sibling
// path, then atomically rename it over the duplicate. Delete-then-create
// would open a window with no resolvable copy at the duplicate's path, so
// it is not an option here.
func doLink(fsys types.FS, intent types.MutationIntent) types.ActionOutcome {
	outcome := types.ActionOutcome{Intent: intent}

	info, err := fsys.Lstat(intent.Source)
	if err != nil {
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrLinkFail, "cannot stat %s", intent.Source)
		return outcome
	}

	tmp := paths.TempSibling(intent.Source)
	if intent.Action == types.ActionHardlink {
		err = fsys.Link(intent.Keeper, tmp)
	} else {
		err = fsys.Symlink(intent.Keeper, tmp)
	}
	if err != nil {
		// Nothing was touched; the duplicate is intact.
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrLinkFail,
			"cannot create %s at %s", intent.Action, tmp)
		return outcome
	}

	if err := fsys.Rename(tmp, intent.Source); err != nil {
		// The duplicate is still intact; only the temp link is removed.
		_ = fsys.Remove(tmp)
		outcome.Status = types.OutcomeFailed
		outcome.Err = errors.Wrapf(err, errors.ErrLinkFail,
			"cannot replace %s with %s", intent.Source, intent.Action)
		return outcome
	}

	outcome.Status = types.OutcomeApplied
	outcome.Reclaimed = info.Size()
	return outcome
}
