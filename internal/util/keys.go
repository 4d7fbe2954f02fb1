package util

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// MaxKeyLen bounds the user part of a storage key. Longer keys are replaced
// by their digest so every provider accepts them.
const MaxKeyLen = 128

// StorageKey builds "<prefix>:<ns>:<key>", digesting oversized keys.
func StorageKey(prefix, ns, key string) string {
	if len(key) > MaxKeyLen {
		key = "h:" + Digest(key)
	}
	return prefix + ":" + ns + ":" + key
}

// Digest returns the first 16 hex chars of the BLAKE3 digest of s.
func Digest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
