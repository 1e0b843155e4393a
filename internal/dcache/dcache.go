// Package dcache persists computed integrity strings between builds so
// unchanged assets are not re-hashed, plus the records file the verify
// command checks against.
package dcache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Payload format changes.
const schemaVersion uint16 = 1

// Key addresses a cache entry: sha256 over the asset content and the
// configured algorithm names, so changing the algorithm set never serves
// a stale integrity string.
type Key [sha256.Size]byte

// KeyFor derives the cache key for content hashed under the given
// algorithm set.
func KeyFor(content []byte, algorithms []string) Key {
	h := sha256.New()
	h.Write(content)
	for _, a := range algorithms {
		h.Write([]byte{0})
		h.Write([]byte(a))
	}
	var key Key
	copy(key[:], h.Sum(nil))
	return key
}

// Payload is one cached integrity computation.
type Payload struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	Integrity string
	Size      int64
	CreatedAt int64 // unix seconds
}

// Cache stores payloads under the user cache directory.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes and returns a disk cache at the standard location.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "sri", fmt.Sprintf("%x", key[:])+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *Cache) Put(key Key, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// atomic replacement
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. A payload
// with an unexpected schema is treated as a miss.
func (c *Cache) Get(key Key, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "sri"))
}
