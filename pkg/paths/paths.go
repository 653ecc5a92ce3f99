// Package paths holds the path-level policy of the engine: canonical forms
// for physical-file identity, the safety list of platform-reserved
// locations, and collision-safe target naming for the move action.
package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dedup/pkg/types"
)

// systemDirs are platform-reserved roots the engine refuses to touch.
var systemDirs = []string{
	"/bin", "/sbin", "/usr/bin", "/usr/sbin",
	"/System", "/Library", "/Applications",
	`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`,
}

// systemFiles are well-known OS junk files excluded by name.
var systemFiles = map[string]struct{}{
	"desktop.ini":  {},
	"thumbs.db":    {},
	".ds_store":    {},
	"pagefile.sys": {},
	"hiberfil.sys": {},
	"swapfile.sys": {},
	"bootmgr":      {},
	"ntldr":        {},
}

// Canonicalize returns the canonical absolute form of path, resolving
// symlinks where the OS allows it. Two paths with equal canonical forms
// refer to the same physical file, which is how overlapping roots are kept
// from yielding a file twice. Falls back to the cleaned absolute path when
// resolution fails (e.g. on in-memory test filesystems).
func Canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// IsSystemPath reports whether path lives under a platform-reserved
// directory.
func IsSystemPath(path string) bool {
	for _, dir := range systemDirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) || path == dir {
			return true
		}
	}
	return false
}

// IsSystemFile reports whether the file's base name is a well-known OS
// junk file.
func IsSystemFile(path string) bool {
	_, ok := systemFiles[strings.ToLower(filepath.Base(path))]
	return ok
}

// Ext returns the lowercased extension of path without its leading dot,
// or "" when there is none.
func Ext(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// NumberedVariant returns the n-th disambiguated variant of path:
// "dir/name_N.ext", or "dir/name_N" when there is no extension.
func NumberedVariant(path string, n int) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
}

// NextAvailable returns the first variant of path for which exists reports
// false, starting with path itself and then name_1, name_2, … The existing
// colliding file is never overwritten.
func NextAvailable(path string, exists func(string) bool) string {
	if !exists(path) {
		return path
	}
	for n := 1; ; n++ {
		candidate := NumberedVariant(path, n)
		if !exists(candidate) {
			return candidate
		}
	}
}

// TempSibling returns a hidden temporary path in the same directory as
// path. Links are created here first and then renamed over the duplicate,
// so a copy of the content is resolvable at every instant.
func TempSibling(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	return filepath.Join(dir, "."+base+".dedup-tmp")
}

// StatExists adapts an FS into the exists probe NextAvailable wants.
func StatExists(fsys types.FS) func(string) bool {
	return func(path string) bool {
		_, err := fsys.Lstat(path)
		return err == nil
	}
}
