// Package report renders scan results and action outcomes for humans.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/arthur-debert/dedup/pkg/types"
	"github.com/pterm/pterm"
)

// ConsoleReporter implements types.Reporter with terminal output.
// When plain is set all styling is suppressed, which is the right
// mode for pipes and CI logs.
type ConsoleReporter struct {
	mu      sync.Mutex
	w       io.Writer
	plain   bool
	verbose bool

	groupIdx int
}

// NewConsole creates a reporter writing to w. With plain set, output
// carries no escape sequences.
func NewConsole(w io.Writer, plain bool) *ConsoleReporter {
	return &ConsoleReporter{w: w, plain: plain}
}

// SetVerbose enables per-file scan output.
func (c *ConsoleReporter) SetVerbose(v bool) {
	c.mu.Lock()
	c.verbose = v
	c.mu.Unlock()
}

func (c *ConsoleReporter) styled(style *pterm.Style, s string) string {
	if c.plain {
		return s
	}
	return style.Sprint(s)
}

func (c *ConsoleReporter) bold(s string) string {
	if c.plain {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// FileScanned prints each collected file when verbose is on.
func (c *ConsoleReporter) FileScanned(entry types.FileEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.verbose {
		return
	}
	fmt.Fprintf(c.w, "  %s (%s)\n", entry.Path, FormatBytes(entry.Size))
}

// GroupFound prints one duplicate group: the keeper first, then each
// duplicate indented beneath it.
func (c *ConsoleReporter) GroupFound(group types.DuplicateGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.groupIdx++
	header := fmt.Sprintf("Group %d: %d files x %s (%s wasted)",
		c.groupIdx, len(group.Members), FormatBytes(group.Size),
		FormatBytes(group.WastedBytes()))
	fmt.Fprintln(c.w, c.bold(header))

	fmt.Fprintf(c.w, "  %s %s\n",
		c.styled(pterm.Success.MessageStyle, "keep"), group.Keeper().Path)
	for _, dup := range group.Duplicates() {
		fmt.Fprintf(c.w, "  %s %s\n",
			c.styled(pterm.Warning.MessageStyle, "dupe"), dup.Path)
	}
}

// ActionOutcome prints the result of one executed intent.
func (c *ConsoleReporter) ActionOutcome(outcome types.ActionOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var label string
	switch outcome.Status {
	case types.OutcomeApplied:
		label = c.styled(pterm.Success.MessageStyle, outcome.Intent.Action.String())
	case types.OutcomeSkipped:
		label = c.styled(pterm.Info.MessageStyle, "skip")
	case types.OutcomeFailed:
		label = c.styled(pterm.Error.MessageStyle, "fail")
	default:
		label = outcome.Intent.Action.String()
	}

	line := fmt.Sprintf("%s %s", label, outcome.Intent.Source)
	if outcome.Intent.Target != "" && outcome.Intent.Target != outcome.Intent.Source {
		line += fmt.Sprintf(" -> %s", outcome.Intent.Target)
	}
	if outcome.Reason != "" {
		line += fmt.Sprintf(" (%s)", outcome.Reason)
	}
	if outcome.Err != nil {
		line += fmt.Sprintf(": %v", outcome.Err)
	}
	fmt.Fprintln(c.w, line)
}

// Summary prints the final run figures.
func (c *ConsoleReporter) Summary(r *types.RunReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.bold("Summary"))
	fmt.Fprintf(c.w, "  files scanned:  %d\n", r.FilesScanned)
	if r.FilesSkipped > 0 {
		fmt.Fprintf(c.w, "  files skipped:  %d\n", r.FilesSkipped)
	}
	fmt.Fprintf(c.w, "  groups found:   %d\n", r.GroupsFound)
	fmt.Fprintf(c.w, "  duplicates:     %d\n", r.Duplicates)
	fmt.Fprintf(c.w, "  reclaimable:    %s\n", FormatBytes(r.BytesReclaimable))

	if len(r.Outcomes) > 0 {
		applied := r.CountByStatus(types.OutcomeApplied)
		skipped := r.CountByStatus(types.OutcomeSkipped)
		failed := r.CountByStatus(types.OutcomeFailed)
		fmt.Fprintf(c.w, "  actions:        %d applied, %d skipped, %d failed\n",
			applied, skipped, failed)
		fmt.Fprintf(c.w, "  reclaimed:      %s\n", FormatBytes(r.BytesReclaimed))
	}
}

// RenderAnalysis prints the size class breakdown for a scan.
func (c *ConsoleReporter) RenderAnalysis(a Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.bold("Analysis"))
	fmt.Fprintf(c.w, "  small groups (<= 1 KiB):  %d\n", a.SmallGroups)
	fmt.Fprintf(c.w, "  medium groups:            %d\n", a.MediumGroups)
	fmt.Fprintf(c.w, "  large groups (> 1 MiB):   %d\n", a.LargeGroups)
	if a.LargestWaste != nil {
		fmt.Fprintf(c.w, "  largest waste:            %s (%s)\n",
			a.LargestWaste.Keeper().Path, FormatBytes(a.LargestWaste.WastedBytes()))
	}
}
