// Package config defines the immutable per-run configuration and its
// validation, plus loading of optional defaults from a config file and
// environment variables.
package config

import (
	"runtime"
	"strings"

	"github.com/arthur-debert/dedup/pkg/errors"
	"github.com/arthur-debert/dedup/pkg/types"
)

// ScanConfig is the full configuration of one run. It is constructed once
// before scanning begins and read-only afterwards.
type ScanConfig struct {
	Roots []string

	Action types.ActionKind
	MoveTo string
	DryRun bool

	MinSize int64
	MaxSize int64 // 0 = no upper bound

	IncludeExt map[string]struct{}
	ExcludeExt map[string]struct{}

	SkipConfirm bool
	Threads     int // 0 = auto-detect
}

// ThreadCount resolves the effective worker count.
func (c *ScanConfig) ThreadCount() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}

// Validate checks the shape of the configuration. Errors here are fatal
// and occur before any filesystem mutation. Root readability is verified
// by the collector, which has the filesystem in hand.
func (c *ScanConfig) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New(errors.ErrConfigInvalid, "at least one root directory is required")
	}
	if c.Action == types.ActionMove && c.MoveTo == "" {
		return errors.New(errors.ErrConfigInvalid, "--move-to is required when action is move")
	}
	if c.MinSize < 0 {
		return errors.New(errors.ErrConfigInvalid, "min-size cannot be negative")
	}
	if c.MaxSize > 0 && c.MaxSize < c.MinSize {
		return errors.Newf(errors.ErrConfigInvalid,
			"max-size (%d) is smaller than min-size (%d)", c.MaxSize, c.MinSize)
	}
	if c.Threads < 0 {
		return errors.New(errors.ErrConfigInvalid, "threads cannot be negative")
	}
	for ext := range c.IncludeExt {
		if _, clash := c.ExcludeExt[ext]; clash {
			return errors.Newf(errors.ErrConfigInvalid,
				"extension %q is both included and excluded", ext)
		}
	}
	return nil
}

// ExtSet normalizes a list of user-supplied extensions into a lookup set:
// lowercased, leading dots stripped, empties dropped.
func ExtSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
