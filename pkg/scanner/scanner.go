// Package scanner implements the path collector: it walks the configured
// roots and yields every candidate file that passes the size, extension,
// and safety filters.
//
// Directory entries are visited in the lexically sorted order ReadDir
// guarantees, so discovery order (and therefore keeper selection) is
// deterministic across repeated scans of an unchanged tree.
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/dedup/pkg/config"
	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/logging"
	"github.com/arthur-debert/dedup/pkg/paths"
	"github.com/arthur-debert/dedup/pkg/types"
)

// Stats counts what the collector saw beyond the yielded candidates.
type Stats struct {
	Collected int
	Skipped   int // filtered out, system paths, unreadable entries
}

// Collect walks every root in cfg and returns the candidate files in
// discovery order, each with its size populated and digest empty.
//
// Symlinked directories are not followed (cycle prevention) and symlinked
// files are skipped (they are not independent content). Overlapping roots
// never produce the same physical file twice: entries are deduplicated by
// canonical path. A root that cannot be read is fatal; anything below a
// root degrades to a skip.
func Collect(ctx context.Context, cfg *config.ScanConfig, fsys types.FS) ([]types.FileEntry, Stats, error) {
	logger := logging.GetLogger("scanner")

	var (
		entries []types.FileEntry
		stats   Stats
		seen    = map[string]struct{}{}
	)

	for _, root := range cfg.Roots {
		info, err := fsys.Stat(root)
		if err != nil {
			return nil, stats, errors.Wrapf(err, errors.ErrRootAccess, "cannot read root directory %s", root)
		}
		if !info.IsDir() {
			return nil, stats, errors.Newf(errors.ErrRootAccess, "root %s is not a directory", root)
		}

		if err := walkDir(ctx, fsys, cfg, root, true, seen, &entries, &stats); err != nil {
			return nil, stats, err
		}
	}

	logger.Debug().
		Int("collected", stats.Collected).
		Int("skipped", stats.Skipped).
		Msg("Collection complete")
	return entries, stats, nil
}

func walkDir(ctx context.Context, fsys types.FS, cfg *config.ScanConfig, dir string, isRoot bool,
	seen map[string]struct{}, out *[]types.FileEntry, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCancelled, "scan aborted")
	}

	logger := logging.GetLogger("scanner")

	dirEntries, err := fsys.ReadDir(dir)
	if err != nil {
		// An unreadable root aborts the run before anything is mutated;
		// an unreadable subdirectory degrades to a skip.
		if isRoot {
			return errors.Wrapf(err, errors.ErrRootAccess, "cannot read root directory %s", dir)
		}
		logger.Debug().Err(err).Str("dir", dir).Msg("Skipping unreadable directory")
		stats.Skipped++
		return nil
	}

	for _, entry := range dirEntries {
		path := joinPath(dir, entry.Name())

		if entry.IsDir() {
			if err := walkDir(ctx, fsys, cfg, path, false, seen, out, stats); err != nil {
				return err
			}
			continue
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			// A symlinked directory would be a cycle risk; a symlinked
			// file is not independent content. Either way, skip.
			stats.Skipped++
			continue
		}
		if !entry.Type().IsRegular() {
			stats.Skipped++
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			stats.Skipped++
			continue
		}

		if !include(cfg, path, info.Size()) {
			stats.Skipped++
			continue
		}

		canonical := paths.Canonicalize(path)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}

		*out = append(*out, types.FileEntry{Path: canonical, Size: info.Size()})
		stats.Collected++
	}
	return nil
}

// include applies the configured filters plus the safety exclusions.
func include(cfg *config.ScanConfig, path string, size int64) bool {
	if paths.IsSystemPath(path) || paths.IsSystemFile(path) {
		return false
	}
	if size < cfg.MinSize {
		return false
	}
	if cfg.MaxSize > 0 && size > cfg.MaxSize {
		return false
	}

	ext := paths.Ext(path)
	if len(cfg.IncludeExt) > 0 {
		if _, ok := cfg.IncludeExt[ext]; !ok {
			return false
		}
	}
	if _, ok := cfg.ExcludeExt[ext]; ok {
		return false
	}
	return true
}

func joinPath(dir, name string) string {
	return filepath.Join(dir, name)
}
