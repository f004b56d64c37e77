package corpus

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns the SHA-256 hex digest of text. It is the chunk identity
// and dedup key: stable across calls, processes, and source documents.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
