package report

import "github.com/arthur-debert/dedup/pkg/types"

// Size class boundaries for the analysis breakdown.
const (
	smallFileLimit = 1024
	largeFileLimit = 1024 * 1024
)

// Analysis aggregates a set of duplicate groups into summary figures.
type Analysis struct {
	Groups      int
	Duplicates  int
	WastedBytes int64

	// Group counts by file size class.
	SmallGroups  int // files up to 1 KiB
	MediumGroups int
	LargeGroups  int // files over 1 MiB

	// The single group wasting the most space, nil when empty.
	LargestWaste *types.DuplicateGroup
}

// Analyze computes summary figures over the given groups.
func Analyze(groups []types.DuplicateGroup) Analysis {
	var a Analysis
	for i := range groups {
		g := &groups[i]
		a.Groups++
		a.Duplicates += len(g.Members) - 1
		a.WastedBytes += g.WastedBytes()

		switch {
		case g.Size <= smallFileLimit:
			a.SmallGroups++
		case g.Size > largeFileLimit:
			a.LargeGroups++
		default:
			a.MediumGroups++
		}

		if a.LargestWaste == nil || g.WastedBytes() > a.LargestWaste.WastedBytes() {
			a.LargestWaste = g
		}
	}
	return a
}
