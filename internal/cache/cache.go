package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a read-through byte cache. Entries are immutable once written:
// values are deterministic for a given key, so concurrent duplicate
// computation is safe and last-writer-wins needs no locking.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced content-hash key from the given parts. Parts are
// joined with a NUL separator so ("ab","c") and ("a","bc") never collide.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "veridex:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
