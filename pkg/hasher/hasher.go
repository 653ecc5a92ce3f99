// Package hasher computes streaming SHA-256 content digests and fans the
// work out over a bounded worker pool. Hashing is the expensive half of
// duplicate detection, so only files that share a size with at least one
// other candidate ever reach this package.
package hasher

import (
	"context"
	"crypto/sha256"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/logging"
	"github.com/arthur-debert/dedup/pkg/types"
)

// chunkSize is the read-buffer capacity. Memory use per worker is bounded
// by this regardless of file size.
const chunkSize = 64 * 1024

// Hash computes the SHA-256 digest of the file at path, streaming the
// content in fixed-size chunks. A zero-byte file hashes to the digest of
// the empty input.
func Hash(fsys types.FS, path string) (types.Digest, error) {
	var digest types.Digest

	f, err := fsys.Open(path)
	if err != nil {
		return digest, errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", path)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return digest, errors.Wrapf(err, errors.ErrHashFail, "read failed for %s", path)
	}

	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// Pool hashes batches of file entries with bounded parallelism.
type Pool struct {
	fsys    types.FS
	workers int
}

// NewPool creates a pool with the given worker count. The caller resolves
// the auto-detect case; workers must be at least 1.
func NewPool(fsys types.FS, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{fsys: fsys, workers: workers}
}

// HashAll hashes every entry exactly once and returns the entries with
// digests populated, preserving input order. Entries whose hash fails keep
// a zero digest and are counted in skipped; a single unreadable file never
// aborts the batch. progress, when non-nil, is called once per completed
// entry (from worker goroutines, in completion order).
func (p *Pool) HashAll(ctx context.Context, entries []types.FileEntry, progress func(types.FileEntry, error)) ([]types.FileEntry, int) {
	logger := logging.GetLogger("hasher")

	hashed := make([]types.FileEntry, len(entries))
	copy(hashed, entries)

	failures := make([]bool, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range hashed {
		if ctx.Err() != nil {
			failures[i] = true
			continue
		}
		g.Go(func() error {
			digest, err := Hash(p.fsys, hashed[i].Path)
			if err != nil {
				logger.Warn().Err(err).Str("path", hashed[i].Path).Msg("Hashing failed, file skipped")
				failures[i] = true
			} else {
				// Disjoint index per goroutine, no locking needed.
				hashed[i].Digest = digest
			}
			if progress != nil {
				progress(hashed[i], err)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; per-file failures degrade to skips

	skipped := 0
	for _, failed := range failures {
		if failed {
			skipped++
		}
	}
	return hashed, skipped
}
