package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a hex digest of the given parts, NUL-separated so that
// ("ab","c") and ("a","bc") hash differently.
func HashKey(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
