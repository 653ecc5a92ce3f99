package types

import (
	"sync"
	"time"
)

// OutcomeStatus is the terminal state of a mutation intent. There are no
// retries within a run: retrying a failed filesystem mutation without
// operator awareness risks compounding damage.
type OutcomeStatus int

const (
	OutcomePending OutcomeStatus = iota
	OutcomeApplied
	OutcomeSkipped
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomePending:
		return "pending"
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ActionOutcome records what happened to a single intent.
type ActionOutcome struct {
	Intent    MutationIntent
	Status    OutcomeStatus
	Reason    string // populated for Skipped
	Err       error  // populated for Failed
	Reclaimed int64  // bytes actually reclaimed (Applied only)
	Duration  time.Duration
}

// RunReport accumulates counters and per-intent outcomes for one run. It is
// append-only and owned by the driver; the executor writes outcomes into it
// from concurrently running group workers, hence the lock.
type RunReport struct {
	mu sync.Mutex

	FilesScanned int // candidates yielded by the collector
	FilesSkipped int // filtered out, unreadable, or failed to hash
	GroupsFound  int
	Duplicates   int // group members beyond each keeper

	BytesReclaimable int64 // sum of wasted bytes over all groups
	BytesReclaimed   int64 // sum over applied outcomes

	Outcomes []ActionOutcome
}

// AddOutcome appends one outcome and folds its reclaimed bytes into the
// totals. Safe for concurrent use.
func (r *RunReport) AddOutcome(o ActionOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes = append(r.Outcomes, o)
	if o.Status == OutcomeApplied {
		r.BytesReclaimed += o.Reclaimed
	}
}

// CountByStatus returns how many outcomes ended in the given status.
func (r *RunReport) CountByStatus(status OutcomeStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that failed, for attribution in the final
// report. Nothing is silently swallowed: every non-success outcome names
// the file it belongs to.
func (r *RunReport) Failures() []ActionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []ActionOutcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Reporter receives pipeline events as they happen. Implementations render
// progress and summaries; the pipeline itself never prints.
type Reporter interface {
	FileScanned(entry FileEntry)
	GroupFound(group DuplicateGroup)
	ActionOutcome(outcome ActionOutcome)
	Summary(report *RunReport)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) FileScanned(FileEntry)        {}
func (NopReporter) GroupFound(DuplicateGroup)    {}
func (NopReporter) ActionOutcome(ActionOutcome)  {}
func (NopReporter) Summary(*RunReport)           {}
