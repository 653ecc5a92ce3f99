// Package filesystem provides the concrete implementations of types.FS:
// an OS-backed one for production and an afero-backed one so tests can run
// against an in-memory filesystem.
package filesystem
