package auth

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// VisitorHasher pseudonymises visitor ids before they reach storage.
type VisitorHasher struct {
	key []byte
}

// NewVisitorHasher builds a hasher. Keys longer than 64 bytes are truncated.
func NewVisitorHasher(key string) *VisitorHasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &VisitorHasher{key: k}
}

// Hash returns the keyed BLAKE2b-256 digest of the visitor id, hex encoded.
func (h *VisitorHasher) Hash(visitorID string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// New256 only fails on oversized keys, which the constructor prevents.
		sum := blake2b.Sum256([]byte(visitorID))
		return hex.EncodeToString(sum[:])
	}
	mac.Write([]byte(visitorID))
	return hex.EncodeToString(mac.Sum(nil))
}
