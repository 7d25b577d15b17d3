package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

// DefaultMemoTTL matches the dashboard's one hour cache window.
const DefaultMemoTTL = time.Hour

// DefaultMemoEntries bounds a Memo when no limit is configured.
const DefaultMemoEntries = 128

// Key hashes its parts into a memo key. Parts are length-prefixed so that
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type memoEntry[V any] struct {
	val     V
	expires time.Time
	used    time.Time
}

// Memo caches successful results by key for a bounded time. Errors are never
// cached. When full, the least recently used entry is evicted.
type Memo[V any] struct {
	mu      sync.Mutex
	entries map[string]*memoEntry[V]
	ttl     time.Duration
	max     int
	now     func() time.Time
	hits    int
	misses  int
}

// NewMemo returns a Memo with the given TTL and capacity (0 means the defaults).
func NewMemo[V any](ttl time.Duration, maxEntries int) *Memo[V] {
	if ttl <= 0 {
		ttl = DefaultMemoTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMemoEntries
	}
	return &Memo[V]{entries: make(map[string]*memoEntry[V]), ttl: ttl, max: maxEntries, now: time.Now}
}

// Get returns the cached value for key, computing and storing it with fn on
// a miss. The second result reports a cache hit.
func (m *Memo[V]) Get(key string, fn func() (V, error)) (V, bool, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		now := m.now()
		if now.Before(e.expires) {
			e.used = now
			m.hits++
			m.mu.Unlock()
			return e.val, true, nil
		}
		delete(m.entries, key)
	}
	m.misses++
	m.mu.Unlock()

	v, err := fn()
	if err != nil {
		var zero V
		return zero, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if len(m.entries) >= m.max {
		m.evictLocked(now)
	}
	m.entries[key] = &memoEntry[V]{val: v, expires: now.Add(m.ttl), used: now}
	return v, false, nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns hit and miss counters.
func (m *Memo[V]) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

func (m *Memo[V]) evictLocked(now time.Time) {
	var oldest string
	var oldestUsed time.Time
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			continue
		}
		if oldest == "" || e.used.Before(oldestUsed) {
			oldest, oldestUsed = k, e.used
		}
	}
	if len(m.entries) >= m.max && oldest != "" {
		delete(m.entries, oldest)
	}
}
