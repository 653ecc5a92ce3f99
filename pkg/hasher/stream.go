package hasher

import (
	"crypto/sha256"
	"hash"

	"github.com/arthur-debert/dedup/pkg/types"
)

// Stream is a digest accumulator for callers that produce the content
// themselves, like the executor's copy-and-verify move fallback.
type Stream struct {
	h hash.Hash
}

// NewStream returns an empty accumulator.
func NewStream() *Stream {
	return &Stream{h: sha256.New()}
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

// Digest returns the digest of everything written so far.
func (s *Stream) Digest() types.Digest {
	var d types.Digest
	copy(d[:], s.h.Sum(nil))
	return d
}
