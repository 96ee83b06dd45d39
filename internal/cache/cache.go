package cache

import (
	"errors"
	"time"
)

// Package cache provides the in-memory response cache for status API payloads.
//
// Responsibilities:
//   - Cache raw API responses keyed by request fingerprint
//   - Transparently gzip-compress large payloads when it saves space
//   - Enforce a total size budget with expired-first, then LRU eviction
//   - Track exact hit/miss counts for the exporter and CLI stats
//
// Eviction order on an over-budget Put:
//   1. Entries whose TTL has lapsed
//   2. Least-recently-used live entries
//   3. If the single payload alone exceeds the budget, refuse the Put
//
// All operations serialize on one mutex; a Get is a read-modify-write
// because it touches recency and hit counters.

// ErrPayloadTooLarge is returned by Put when a single payload exceeds the
// configured size budget and no amount of eviction can make it fit.
var ErrPayloadTooLarge = errors.New("cache: payload exceeds maximum cache size")

// Entry is a single cached payload with its expiry and bookkeeping metadata.
type Entry struct {
	Key        string
	Data       []byte // compressed bytes when Compressed is true
	Compressed bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastAccess time.Time
	SizeBytes  int64 // size of Data as stored
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRatio       float64 `json:"hit_ratio"`
	EntryCount     int     `json:"entry_count"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	MaxSizeBytes   int64   `json:"max_size_bytes"`
	Evictions      uint64  `json:"evictions"`
}

// Options configures a Cache.
type Options struct {
	// MaxSizeMB is the total budget for stored (post-compression) bytes.
	MaxSizeMB int

	// DefaultTTL applies when Put is called with ttl <= 0.
	DefaultTTL time.Duration

	// Compression enables gzip for payloads where it is strictly smaller.
	Compression bool

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Cache defines the interface for the response cache.
type Cache interface {
	// Get returns the decompressed payload for key, or found=false on a
	// miss. An expired entry is removed and counts as a miss.
	Get(key string) ([]byte, bool)

	// Put stores payload under key for ttl, replacing any existing entry.
	// Returns ErrPayloadTooLarge when the payload cannot fit at all.
	Put(key string, payload []byte, ttl time.Duration) error

	// Delete removes a key. Reports whether it was present.
	Delete(key string) bool

	// Clear removes all entries and returns how many were removed.
	// Hit/miss counters are preserved.
	Clear() int

	// EvictExpired removes all expired entries, returning the count and
	// the number of stored bytes freed.
	EvictExpired() (removed int, freedBytes int64)

	// Stats returns a snapshot of cache counters.
	Stats() Stats
}

// New creates an in-memory cache.
func New(opts Options) Cache {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &memoryCache{
		entries:     make(map[string]*Entry),
		maxBytes:    int64(opts.MaxSizeMB) * 1024 * 1024,
		defaultTTL:  opts.DefaultTTL,
		compression: opts.Compression,
		now:         now,
	}
}
