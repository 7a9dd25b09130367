package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the short content hash stored in migration state.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
