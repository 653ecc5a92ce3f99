package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestSize is the size in bytes of a content digest (SHA-256).
const DigestSize = sha256.Size

// Digest is a 256-bit content hash used as the equality proxy for file
// content. The zero value means "not yet hashed".
type Digest [DigestSize]byte

// IsZero reports whether the digest has not been computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, for display.
func (d Digest) Short() string {
	return d.String()[:12]
}

// FileEntry is a candidate file discovered by the scanner. Size is always
// populated; Digest is populated by the hasher, and only for files whose
// size is shared with at least one other candidate.
type FileEntry struct {
	Path   string
	Size   int64
	Digest Digest
}

// DuplicateGroup is an equivalence class of files with identical size and
// digest. Members are in first-discovery order and there are always at
// least two of them. Groups are never mutated after creation.
type DuplicateGroup struct {
	Digest  Digest
	Size    int64
	Members []FileEntry
}

// Keeper returns the member that is retained, always the first-discovered
// one. Every destructive action targets the remaining members only.
func (g DuplicateGroup) Keeper() FileEntry {
	return g.Members[0]
}

// Duplicates returns every member except the keeper.
func (g DuplicateGroup) Duplicates() []FileEntry {
	return g.Members[1:]
}

// WastedBytes returns the bytes reclaimable from this group if every
// duplicate were removed.
func (g DuplicateGroup) WastedBytes() int64 {
	return g.Size * int64(len(g.Members)-1)
}

// ActionKind selects what happens to the duplicates of each group.
type ActionKind int

const (
	ActionList ActionKind = iota
	ActionDelete
	ActionMove
	ActionHardlink
	ActionSymlink
)

// ParseAction parses a user-supplied action name.
func ParseAction(s string) (ActionKind, error) {
	switch strings.ToLower(s) {
	case "list":
		return ActionList, nil
	case "delete":
		return ActionDelete, nil
	case "move":
		return ActionMove, nil
	case "hardlink":
		return ActionHardlink, nil
	case "symlink":
		return ActionSymlink, nil
	default:
		return ActionList, fmt.Errorf("unknown action %q (valid: list, delete, move, hardlink, symlink)", s)
	}
}

func (a ActionKind) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionDelete:
		return "delete"
	case ActionMove:
		return "move"
	case ActionHardlink:
		return "hardlink"
	case ActionSymlink:
		return "symlink"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(a))
	}
}

// Mutates reports whether the action changes the filesystem.
func (a ActionKind) Mutates() bool {
	return a != ActionList
}

// MutationIntent is one planned change to the filesystem: what to do to a
// single duplicate. Intents are created by the planner, never for a
// keeper, and consumed exactly once by the executor.
//
// Target is empty for Delete. For Move it is the collision-safe
// destination path. For Hardlink and Symlink it equals Source: the
// duplicate is replaced in place by a link to Keeper.
type MutationIntent struct {
	Action ActionKind
	Source string
	Target string
	Keeper string
}
