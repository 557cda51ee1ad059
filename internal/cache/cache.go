// Package cache provides byte-value caching used to memoize embedding
// calls across pipeline runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from namespaced parts. The final part is
// hashed, so arbitrarily long text is a valid input.
func Key(parts ...string) string {
	if len(parts) == 0 {
		return "refute:v1:"
	}
	last := parts[len(parts)-1]
	hash := sha256.Sum256([]byte(last))
	prefix := strings.Join(parts[:len(parts)-1], ":")
	if prefix != "" {
		prefix += ":"
	}
	return "refute:v1:" + prefix + hex.EncodeToString(hash[:])
}
