package dedup_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arthur-debert/dedup/pkg/config"
	"github.com/arthur-debert/dedup/pkg/dedup"
	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/filesystem"
	"github.com/arthur-debert/dedup/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// countingFS counts Open calls, which is exactly "how many files were
// hashed" during a scan.
type countingFS struct {
	types.FS
	mu    sync.Mutex
	opens []string
}

func (c *countingFS) Open(name string) (io.ReadCloser, error) {
	c.mu.Lock()
	c.opens = append(c.opens, name)
	c.mu.Unlock()
	return c.FS.Open(name)
}

func TestScanHelloWorldScenario(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
		"c.txt": "world",
	})
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionList}

	result, err := dedup.Scan(context.Background(), cfg, dedup.Options{})
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	g := result.Groups[0]
	assert.Equal(t, int64(5), g.Size)
	assert.Equal(t, "a.txt", filepath.Base(g.Members[0].Path))
	assert.Equal(t, "b.txt", filepath.Base(g.Members[1].Path))

	assert.Equal(t, 3, result.Report.FilesScanned)
	assert.Equal(t, 1, result.Report.GroupsFound)
	assert.Equal(t, 1, result.Report.Duplicates)
	assert.Equal(t, int64(5), result.Report.BytesReclaimable)
}

func TestDeleteEndToEnd(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
		"c.txt": "world",
	})
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionDelete}

	report, err := dedup.Run(context.Background(), cfg, dedup.Options{})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "c.txt"))
	assert.Equal(t, int64(5), report.BytesReclaimed)
}

func TestMinSizeFiltersOutSmallDuplicates(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
	})
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionList, MinSize: 10}

	result, err := dedup.Scan(context.Background(), cfg, dedup.Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	assert.Equal(t, 0, result.Report.Duplicates)
	assert.Equal(t, 0, result.Report.FilesScanned)
}

func TestUniqueSizesNeverReachTheHasher(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt":    "hello",      // 5 bytes, shared size
		"b.txt":    "world",      // 5 bytes, shared size
		"lone.txt": "0123456789", // unique size
	})
	counting := &countingFS{FS: filesystem.NewOS()}
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionList}

	result, err := dedup.Scan(context.Background(), cfg, dedup.Options{FS: counting})
	require.NoError(t, err)

	// Equal size is not enough; the digests disambiguate.
	assert.Empty(t, result.Groups)

	assert.Len(t, counting.opens, 2)
	for _, opened := range counting.opens {
		assert.NotEqual(t, "lone.txt", filepath.Base(opened))
	}
}

func TestKeeperStableAcrossRescans(t *testing.T) {
	dir := tree(t, map[string]string{
		"x/1.dat": "same-content",
		"y/2.dat": "same-content",
		"z/3.dat": "same-content",
	})
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionList}

	var keepers []string
	for i := 0; i < 3; i++ {
		result, err := dedup.Scan(context.Background(), cfg, dedup.Options{})
		require.NoError(t, err)
		require.Len(t, result.Groups, 1)
		keepers = append(keepers, result.Groups[0].Keeper().Path)
	}
	assert.Equal(t, keepers[0], keepers[1])
	assert.Equal(t, keepers[1], keepers[2])
	assert.Equal(t, "1.dat", filepath.Base(keepers[0]))
}

func TestDryRunPlansIdenticallyAndMutatesNothing(t *testing.T) {
	files := map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
		"c.txt": "hello",
	}
	liveDir := tree(t, files)
	dryDir := tree(t, files)

	liveCfg := &config.ScanConfig{Roots: []string{liveDir}, Action: types.ActionDelete}
	dryCfg := &config.ScanConfig{Roots: []string{dryDir}, Action: types.ActionDelete, DryRun: true}

	liveReport, err := dedup.Run(context.Background(), liveCfg, dedup.Options{})
	require.NoError(t, err)
	dryReport, err := dedup.Run(context.Background(), dryCfg, dedup.Options{})
	require.NoError(t, err)

	// Same plan: one outcome per duplicate, same sources relative to root.
	require.Len(t, dryReport.Outcomes, len(liveReport.Outcomes))
	for i := range dryReport.Outcomes {
		assert.Equal(t,
			filepath.Base(liveReport.Outcomes[i].Intent.Source),
			filepath.Base(dryReport.Outcomes[i].Intent.Source))
	}

	// Zero mutation on the dry side, and nothing counted as reclaimed.
	assert.Equal(t, int64(0), dryReport.BytesReclaimed)
	for name := range files {
		assert.FileExists(t, filepath.Join(dryDir, name))
	}
}

func TestMoveEndToEndWithCollision(t *testing.T) {
	dir := tree(t, map[string]string{
		"src/a.txt":    "hello",
		"src/b.txt":    "hello",
		"backup/b.txt": "already-here",
	})
	cfg := &config.ScanConfig{
		Roots:  []string{filepath.Join(dir, "src")},
		Action: types.ActionMove,
		MoveTo: filepath.Join(dir, "backup"),
	}

	_, err := dedup.Run(context.Background(), cfg, dedup.Options{})
	require.NoError(t, err)

	// The pre-existing collision file is untouched.
	data, err := os.ReadFile(filepath.Join(dir, "backup", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "already-here", string(data))

	moved, err := os.ReadFile(filepath.Join(dir, "backup", "b_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(moved))
	assert.NoFileExists(t, filepath.Join(dir, "src", "b.txt"))
	assert.FileExists(t, filepath.Join(dir, "src", "a.txt"))
}

func TestHardlinkEndToEnd(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
	})
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionHardlink}

	_, err := dedup.Run(context.Background(), cfg, dedup.Options{})
	require.NoError(t, err)

	aInfo, err := os.Stat(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	bInfo, err := os.Stat(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(aInfo, bInfo))
}

func TestInvalidConfigIsFatalBeforeMutation(t *testing.T) {
	_, err := dedup.Scan(context.Background(),
		&config.ScanConfig{Action: types.ActionList}, dedup.Options{})
	assert.True(t, errors.IsFatal(err))
}

func TestInvalidMoveTargetIsFatal(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt":  "hello",
		"b.txt":  "hello",
		"a-file": "not a directory",
	})
	cfg := &config.ScanConfig{
		Roots:  []string{dir},
		Action: types.ActionMove,
		MoveTo: filepath.Join(dir, "a-file"),
	}

	result, err := dedup.Scan(context.Background(), cfg, dedup.Options{})
	require.NoError(t, err)
	err = dedup.Apply(context.Background(), cfg, result, dedup.Options{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrMoveTarget))

	// Nothing was mutated.
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

type recordingReporter struct {
	mu       sync.Mutex
	scanned  int
	groups   int
	outcomes int
	summary  int
}

func (r *recordingReporter) FileScanned(types.FileEntry) {
	r.mu.Lock()
	r.scanned++
	r.mu.Unlock()
}
func (r *recordingReporter) GroupFound(types.DuplicateGroup) {
	r.mu.Lock()
	r.groups++
	r.mu.Unlock()
}
func (r *recordingReporter) ActionOutcome(types.ActionOutcome) {
	r.mu.Lock()
	r.outcomes++
	r.mu.Unlock()
}
func (r *recordingReporter) Summary(*types.RunReport) {
	r.mu.Lock()
	r.summary++
	r.mu.Unlock()
}

func TestReporterReceivesEvents(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
		"c.txt": "world",
	})
	rep := &recordingReporter{}
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionDelete}

	_, err := dedup.Run(context.Background(), cfg, dedup.Options{Reporter: rep})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.scanned)
	assert.Equal(t, 1, rep.groups)
	assert.Equal(t, 1, rep.outcomes)
	assert.Equal(t, 1, rep.summary)
}

func TestHashProgressReachesTotal(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
	})
	var last int
	var mu sync.Mutex
	cfg := &config.ScanConfig{Roots: []string{dir}, Action: types.ActionList}

	_, err := dedup.Scan(context.Background(), cfg, dedup.Options{
		HashProgress: func(done, total int) {
			mu.Lock()
			if done > last {
				last = done
			}
			assert.Equal(t, 2, total)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, last)
}
