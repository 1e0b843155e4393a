package dcache

import (
	"time"

	"sealant/internal/sri"
)

// CachedHasher wraps a digest engine with the disk cache. Cache failures
// fall through to a plain computation: the cache saves time, never
// correctness.
type CachedHasher struct {
	Engine *sri.Engine
	Cache  *Cache
}

func (h *CachedHasher) Integrity(content []byte) string {
	key := KeyFor(content, h.Engine.Names())
	var payload Payload
	if ok, err := h.Cache.Get(key, &payload); err == nil && ok {
		return payload.Integrity
	}
	integrity := h.Engine.Integrity(content)
	_ = h.Cache.Put(key, &Payload{
		Integrity: integrity,
		Size:      int64(len(content)),
		CreatedAt: time.Now().Unix(),
	})
	return integrity
}
