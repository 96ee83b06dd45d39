package cache

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, opts Options) (Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts.Now = clock.now
	return New(opts), clock
}

func TestPutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1, Compression: true})

	// Highly compressible payload; Get must return the original bytes.
	payload := bytes.Repeat([]byte("status: operational\n"), 200)
	if err := c.Put("summary", payload, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get("summary")
	if !ok {
		t.Fatal("expected hit, got miss")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round-trip mismatch: got %d bytes, want %d", len(got), len(payload))
	}

	// Compression must have actually shrunk the stored size.
	st := c.Stats()
	if st.TotalSizeBytes >= int64(len(payload)) {
		t.Errorf("expected stored size < %d, got %d", len(payload), st.TotalSizeBytes)
	}
}

func TestCompressionSkippedWhenNotSmaller(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1, Compression: true})

	// Tiny payload: gzip overhead makes the compressed form larger.
	payload := []byte("ok")
	if err := c.Put("k", payload, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	st := c.Stats()
	if st.TotalSizeBytes != int64(len(payload)) {
		t.Errorf("expected payload stored raw (%d bytes), got %d", len(payload), st.TotalSizeBytes)
	}

	got, ok := c.Get("k")
	if !ok || !bytes.Equal(got, payload) {
		t.Errorf("round-trip mismatch: %q, %v", got, ok)
	}
}

func TestCompressionDisabled(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1, Compression: false})

	payload := bytes.Repeat([]byte("x"), 4096)
	if err := c.Put("k", payload, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if st := c.Stats(); st.TotalSizeBytes != 4096 {
		t.Errorf("expected 4096 stored bytes with compression off, got %d", st.TotalSizeBytes)
	}
}

func TestTTLExpiry(t *testing.T) {
	c, clock := newTestCache(t, Options{MaxSizeMB: 1})

	if err := c.Put("k", []byte("v"), 5*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	clock.advance(6 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after expiry")
	}

	// The expired entry is gone, not just hidden.
	if st := c.Stats(); st.EntryCount != 0 || st.TotalSizeBytes != 0 {
		t.Errorf("expected empty cache after expiry, got count=%d size=%d", st.EntryCount, st.TotalSizeBytes)
	}
}

func TestHitRatioAccounting(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1})

	// No lookups yet: ratio is exactly zero, not NaN.
	if st := c.Stats(); st.HitRatio != 0 {
		t.Errorf("expected hit ratio 0 with no lookups, got %g", st.HitRatio)
	}

	_ = c.Put("k", []byte("v"), time.Minute)

	c.Get("k")      // hit
	c.Get("k")      // hit
	c.Get("absent") // miss

	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 {
		t.Errorf("expected 2 hits / 1 miss, got %d / %d", st.Hits, st.Misses)
	}
	want := 2.0 / 3.0
	if st.HitRatio != want {
		t.Errorf("expected hit ratio %g, got %g", want, st.HitRatio)
	}
}

func TestExpiredLookupCountsAsMiss(t *testing.T) {
	c, clock := newTestCache(t, Options{MaxSizeMB: 1})

	_ = c.Put("k", []byte("v"), time.Second)
	clock.advance(2 * time.Second)
	c.Get("k")

	st := c.Stats()
	if st.Hits != 0 || st.Misses != 1 {
		t.Errorf("expected expired lookup to count as miss, got hits=%d misses=%d", st.Hits, st.Misses)
	}
}

func TestEvictExpired(t *testing.T) {
	c, clock := newTestCache(t, Options{MaxSizeMB: 1})

	_ = c.Put("short-a", bytes.Repeat([]byte{1}, 100), time.Second)
	_ = c.Put("short-b", bytes.Repeat([]byte{2}, 100), time.Second)
	_ = c.Put("long", bytes.Repeat([]byte{3}, 100), time.Hour)

	clock.advance(2 * time.Second)

	removed, freed := c.EvictExpired()
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if freed != 200 {
		t.Errorf("expected 200 bytes freed, got %d", freed)
	}

	if _, ok := c.Get("long"); !ok {
		t.Error("live entry must survive EvictExpired")
	}
}

func TestClearReturnsCount(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1})

	for i := 0; i < 4; i++ {
		_ = c.Put(fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}
	c.Get("k0")

	if n := c.Clear(); n != 4 {
		t.Errorf("expected Clear to report 4 entries, got %d", n)
	}
	st := c.Stats()
	if st.EntryCount != 0 || st.TotalSizeBytes != 0 {
		t.Errorf("expected empty cache after Clear, got count=%d size=%d", st.EntryCount, st.TotalSizeBytes)
	}
	// Counters survive a Clear.
	if st.Hits != 1 {
		t.Errorf("expected hit counter preserved across Clear, got %d", st.Hits)
	}
}

func TestCapacityRefusesOversizedPayload(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1, Compression: false})

	tooBig := make([]byte, 2*1024*1024)
	if err := c.Put("huge", tooBig, time.Minute); err != ErrPayloadTooLarge {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if st := c.Stats(); st.EntryCount != 0 {
		t.Errorf("refused Put must not leave residue, got %d entries", st.EntryCount)
	}
}

func TestCapacityEvictsLRU(t *testing.T) {
	c, clock := newTestCache(t, Options{MaxSizeMB: 1, Compression: false})

	// Three 400KB entries cannot all fit in 1MB.
	blob := make([]byte, 400*1024)
	_ = c.Put("a", blob, time.Hour)
	clock.advance(time.Second)
	_ = c.Put("b", blob, time.Hour)
	clock.advance(time.Second)

	// Touch "a" so "b" becomes least recently used.
	c.Get("a")
	clock.advance(time.Second)

	if err := c.Put("c", blob, time.Hour); err != nil {
		t.Fatalf("Put c: %v", err)
	}

	if _, ok := c.Get("b"); ok {
		t.Error("expected LRU entry b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry a must survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry c must be present")
	}

	st := c.Stats()
	if st.TotalSizeBytes > st.MaxSizeBytes {
		t.Errorf("size budget violated: %d > %d", st.TotalSizeBytes, st.MaxSizeBytes)
	}
}

func TestCapacityPrefersExpiredOverLive(t *testing.T) {
	c, clock := newTestCache(t, Options{MaxSizeMB: 1, Compression: false})

	blob := make([]byte, 400*1024)
	_ = c.Put("expired", blob, time.Second)
	clock.advance(2 * time.Second)
	_ = c.Put("live", blob, time.Hour)
	clock.advance(time.Second)

	// Fits once the expired entry is reclaimed; live must not be evicted.
	if err := c.Put("new", blob, time.Hour); err != nil {
		t.Fatalf("Put new: %v", err)
	}

	if _, ok := c.Get("live"); !ok {
		t.Error("live entry evicted while an expired one was reclaimable")
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("new entry missing")
	}
}

func TestPutReplacesExistingKey(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1, Compression: false})

	_ = c.Put("k", bytes.Repeat([]byte{1}, 1000), time.Minute)
	_ = c.Put("k", []byte("small"), time.Minute)

	got, ok := c.Get("k")
	if !ok || string(got) != "small" {
		t.Fatalf("expected replacement value, got %q, %v", got, ok)
	}
	if st := c.Stats(); st.TotalSizeBytes != 5 || st.EntryCount != 1 {
		t.Errorf("replacement must reclaim old bytes, got size=%d count=%d", st.TotalSizeBytes, st.EntryCount)
	}
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t, Options{MaxSizeMB: 1})

	_ = c.Put("k", []byte("v"), time.Minute)
	if !c.Delete("k") {
		t.Error("expected Delete to report presence")
	}
	if c.Delete("k") {
		t.Error("expected second Delete to report absence")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("deleted key must miss")
	}
}
