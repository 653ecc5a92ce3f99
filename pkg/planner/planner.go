// Package planner turns duplicate groups into an ordered list of mutation
// intents. Planning is pure data transformation: the only filesystem
// knowledge it consumes is an injected existence probe, used to pick
// collision-safe move targets, so the package is unit-testable without
// touching disk.
//
// Keeper policy: the first member of each group, per the grouper's stable
// discovery ordering, is always the keeper. Every other member becomes a
// duplicate subject to the chosen action. Keeper choice decides which
// copy of the user's data survives, so it must be stable across runs.
package planner

import (
	"path/filepath"

	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/paths"
	"github.com/arthur-debert/dedup/pkg/types"
)

// Options configures planning.
type Options struct {
	// MoveTo is the destination directory for the move action.
	MoveTo string

	// TargetExists reports whether a path is already taken on disk. Nil
	// means nothing exists (pure in-memory planning).
	TargetExists func(path string) bool
}

// Plan produces one intent per duplicate, never one for a keeper. List
// plans nothing. Intents appear in group order, duplicates in member
// order, so execution order is as deterministic as discovery order.
func Plan(groups []types.DuplicateGroup, action types.ActionKind, opts Options) ([]types.MutationIntent, error) {
	if action == types.ActionList {
		return nil, nil
	}
	if action == types.ActionMove && opts.MoveTo == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "move action requires a target directory")
	}

	exists := opts.TargetExists
	if exists == nil {
		exists = func(string) bool { return false }
	}
	// Targets claimed by this plan also count as taken, so two duplicates
	// named b.txt from different directories cannot be assigned the same
	// destination.
	claimed := map[string]struct{}{}
	taken := func(path string) bool {
		if _, ok := claimed[path]; ok {
			return true
		}
		return exists(path)
	}

	var intents []types.MutationIntent
	for _, group := range groups {
		keeper := group.Keeper().Path
		for _, dup := range group.Duplicates() {
			intent := types.MutationIntent{
				Action: action,
				Source: dup.Path,
				Keeper: keeper,
			}
			switch action {
			case types.ActionDelete:
				// Target stays empty.
			case types.ActionMove:
				requested := filepath.Join(opts.MoveTo, filepath.Base(dup.Path))
				target := paths.NextAvailable(requested, taken)
				claimed[target] = struct{}{}
				intent.Target = target
			case types.ActionHardlink, types.ActionSymlink:
				// The duplicate is replaced in place by a link to the keeper.
				intent.Target = dup.Path
			}
			intents = append(intents, intent)
		}
	}
	return intents, nil
}
