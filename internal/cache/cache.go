// Package cache stores LLM responses so repeated prompts during a research
// run (and across re-runs) skip the provider entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-oriented store with per-entry TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from the given parts (provider name,
// prompt content, temperature and so on). Parts are length-delimited so
// ("ab","c") and ("a","bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "claimsift:v1:" + hex.EncodeToString(h.Sum(nil))
}
