package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// shortHashLen is enough to keep credential scopes apart without making
// keys unwieldy.
const shortHashLen = 12

// digestKey returns "kind:" followed by the SHA-256 of the JSON encoding
// of v. Callers normalize v first so equal requests share a key.
func digestKey(kind string, v any) string {
	data, _ := json.Marshal(v)
	return kind + ":" + Hash(data)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first 12 hex characters of the SHA-256 of the
// given strings, NUL-separated. It identifies credentials in cache keys
// without storing them.
func ShortHash(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:shortHashLen]
}
