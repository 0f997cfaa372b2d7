package cache

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pulseline/pulseline/internal/metrics"
)

// entry is the on-disk cache record. A persisted entry file is always
// either absent or fully valid; Put guarantees this with a
// write-validate-rename protocol.
type entry struct {
	Category   string          `json:"category"`
	FetchedAt  time.Time       `json:"fetched_at"`
	TTLSeconds int             `json:"ttl_seconds"`
	Payload    json.RawMessage `json:"payload"`
}

// Cached is a decoded cache entry as seen by the renderer.
type Cached struct {
	Payload metrics.Payload
	Age     time.Duration
	TTL     time.Duration
}

// Stale reports whether the entry has outlived its TTL.
func (c Cached) Stale() bool { return c.Age > c.TTL }

// Store reads and writes per-category cache files under Dir. It is safe
// for use from concurrently running processes: writers never leave a
// partially written destination file behind.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store { return &Store{Dir: dir} }

func (s *Store) path(cat metrics.Category) string {
	return filepath.Join(s.Dir, string(cat)+".json")
}

// Get loads the cached payload for cat. Absent, unreadable, or corrupt
// files are all reported as a plain miss; the renderer must never see
// an error from the cache.
func (s *Store) Get(cat metrics.Category) (*Cached, bool) {
	data, err := os.ReadFile(s.path(cat))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if e.Category != string(cat) || e.FetchedAt.IsZero() {
		return nil, false
	}
	payload, err := metrics.Decode(cat, e.Payload)
	if err != nil {
		return nil, false
	}
	return &Cached{
		Payload: payload,
		Age:     time.Since(e.FetchedAt),
		TTL:     time.Duration(e.TTLSeconds) * time.Second,
	}, true
}

// Put persists payload for cat with the given TTL. The write is atomic:
// the entry is serialized to a uniquely named temp file in the same
// directory, re-parsed to prove it round-trips, and only then renamed
// over the destination. On any failure the previous entry is untouched.
func (s *Store) Put(cat metrics.Category, payload metrics.Payload, ttl time.Duration) error {
	if payload.Category() != cat {
		return fmt.Errorf("caching %s: payload belongs to %s", cat, payload.Category())
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("caching %s: %w", cat, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("caching %s: %w", cat, err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("caching %s: %w", cat, err)
	}
	data, err := json.Marshal(entry{
		Category:   string(cat),
		FetchedAt:  time.Now().UTC(),
		TTLSeconds: int(ttl.Seconds()),
		Payload:    raw,
	})
	if err != nil {
		return fmt.Errorf("caching %s: %w", cat, err)
	}

	tmp := s.path(cat) + ".tmp-" + fmt.Sprintf("%d-%s", os.Getpid(), randomSuffix())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("caching %s: %w", cat, err)
	}
	if err := revalidate(cat, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("caching %s: %w", cat, err)
	}
	if err := os.Rename(tmp, s.path(cat)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("caching %s: %w", cat, err)
	}
	return nil
}

// Clear removes the cache entry for cat. Used by maintenance commands
// only; the refresh path never deletes entries.
func (s *Store) Clear(cat metrics.Category) error {
	err := os.Remove(s.path(cat))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing %s cache: %w", cat, err)
	}
	return nil
}

// revalidate re-reads the temp file and proves the bytes decode back
// into a valid entry before they replace the destination.
func revalidate(cat metrics.Category, tmp string) error {
	data, err := os.ReadFile(tmp)
	if err != nil {
		return err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	if _, err := metrics.Decode(cat, e.Payload); err != nil {
		return err
	}
	return nil
}

func randomSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
