package cache

import (
	"bytes"
	"compress/gzip"
	"io"
	"sync"
	"time"
)

// memoryCache is the in-memory implementation of Cache.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]*Entry
	totalBytes  int64
	maxBytes    int64
	defaultTTL  time.Duration
	compression bool
	now         func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

// Get returns the decompressed payload for key, or found=false on a miss.
func (c *memoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	if !c.now().Before(e.ExpiresAt) {
		c.removeLocked(e)
		c.misses++
		return nil, false
	}

	payload, err := decodePayload(e)
	if err != nil {
		// A corrupt entry is unusable; drop it and report a miss.
		c.removeLocked(e)
		c.misses++
		return nil, false
	}

	e.LastAccess = c.now()
	c.hits++
	return payload, true
}

// Put stores payload under key for ttl, replacing any existing entry.
func (c *memoryCache) Put(key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data := payload
	compressed := false
	if c.compression {
		if gz, ok := gzipSmaller(payload); ok {
			data = gz
			compressed = true
		}
	}

	size := int64(len(data))
	if size > c.maxBytes {
		return ErrPayloadTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}

	if c.totalBytes+size > c.maxBytes {
		c.evictExpiredLocked()
	}
	for c.totalBytes+size > c.maxBytes {
		victim := c.oldestLocked()
		if victim == nil {
			// Unreachable given the size check above; fail closed.
			return ErrPayloadTooLarge
		}
		c.removeLocked(victim)
		c.evictions++
	}

	ts := c.now()
	c.entries[key] = &Entry{
		Key:        key,
		Data:       data,
		Compressed: compressed,
		CreatedAt:  ts,
		ExpiresAt:  ts.Add(ttl),
		LastAccess: ts,
		SizeBytes:  size,
	}
	c.totalBytes += size
	return nil
}

// Delete removes a key.
func (c *memoryCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

// Clear removes all entries and returns how many were removed.
func (c *memoryCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*Entry)
	c.totalBytes = 0
	return n
}

// EvictExpired removes all expired entries.
func (c *memoryCache) EvictExpired() (int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictExpiredLocked()
}

// Stats returns a snapshot of cache counters.
func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	ratio := 0.0
	if lookups := c.hits + c.misses; lookups > 0 {
		ratio = float64(c.hits) / float64(lookups)
	}
	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		HitRatio:       ratio,
		EntryCount:     len(c.entries),
		TotalSizeBytes: c.totalBytes,
		MaxSizeBytes:   c.maxBytes,
		Evictions:      c.evictions,
	}
}

// ─── Internals (caller must hold mu) ─────────────────────────────────────────

func (c *memoryCache) removeLocked(e *Entry) {
	delete(c.entries, e.Key)
	c.totalBytes -= e.SizeBytes
}

func (c *memoryCache) evictExpiredLocked() (int, int64) {
	now := c.now()
	removed := 0
	var freed int64
	for _, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			freed += e.SizeBytes
			c.removeLocked(e)
			removed++
		}
	}
	return removed, freed
}

// oldestLocked returns the least-recently-used entry, or nil when empty.
func (c *memoryCache) oldestLocked() *Entry {
	var oldest *Entry
	for _, e := range c.entries {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldest = e
		}
	}
	return oldest
}

// ─── Compression helpers ─────────────────────────────────────────────────────

// gzipSmaller compresses payload and reports whether the result is strictly
// smaller than the original.
func gzipSmaller(payload []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(payload) {
		return nil, false
	}
	return buf.Bytes(), true
}

// decodePayload returns the original payload for an entry, inflating when
// it was stored compressed.
func decodePayload(e *Entry) ([]byte, error) {
	if !e.Compressed {
		return e.Data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(e.Data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
