package cache

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Spec is the canonical description of how an input is transformed. Every
// field participates in the fingerprint.
type Spec struct {
	Model   string
	Scale   int
	Tile    int
	Weights string
	Format  string
}

// Fingerprint is the content address of a transformation result.
type Fingerprint struct {
	d digest.Digest
}

// NewFingerprint digests the canonical spec header followed by the exact input
// bytes. The header carries the input length so no (input, spec) pair can be
// re-split into another.
func NewFingerprint(input []byte, s Spec) Fingerprint {
	dg := digest.SHA256.Digester()
	h := dg.Hash()
	fmt.Fprintf(h, "model=%s;scale=%d;tile=%d;weights=%s;format=%s;len=%d\x00",
		s.Model, s.Scale, s.Tile, s.Weights, s.Format, len(input))
	_, _ = h.Write(input)
	return Fingerprint{d: dg.Digest()}
}

// Key is the hex encoded digest used as storage key and file name.
func (f Fingerprint) Key() string { return f.d.Encoded() }

// String returns the algorithm-qualified digest, e.g. "sha256:ab12...".
func (f Fingerprint) String() string { return f.d.String() }

// IsZero reports whether f was never computed.
func (f Fingerprint) IsZero() bool { return f.d == "" }

// validKey guards backends against keys that are not hex digests.
func validKey(key string) bool {
	if len(key) != 64 {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
