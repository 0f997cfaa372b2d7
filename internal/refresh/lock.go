package refresh

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pulseline/pulseline/internal/metrics"
)

// lockFile is the on-disk record for an in-flight refresh.
type lockFile struct {
	OwnerID            string    `json:"owner_id"`
	AcquiredAt         time.Time `json:"acquired_at"`
	MaxDurationSeconds int       `json:"max_duration_seconds"`
}

// LockDir manages per-category lock files. The lock is best-effort: a
// race between the existence check and creation can let two refreshes
// run, which is tolerated because cache writes are atomic and
// idempotent: last write wins.
type LockDir struct {
	Dir string
	// MaxAge is how long a lock may live before a later attempt may
	// reclaim it, presuming the original refresh crashed or hung.
	MaxAge time.Duration
}

func NewLockDir(dir string, maxAge time.Duration) *LockDir {
	return &LockDir{Dir: dir, MaxAge: maxAge}
}

func (d *LockDir) path(cat metrics.Category) string {
	return filepath.Join(d.Dir, string(cat)+".lock")
}

// Acquire attempts to take the refresh lock for cat. On success it
// returns an owner token that must be presented to Release. ok=false
// with a nil error means another refresh holds a live lock.
func (d *LockDir) Acquire(cat metrics.Category) (token string, ok bool, err error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", false, fmt.Errorf("acquiring %s lock: %w", cat, err)
	}

	token = fmt.Sprintf("%d-%s", os.Getpid(), uuid.NewString())
	data, err := json.Marshal(lockFile{
		OwnerID:            token,
		AcquiredAt:         time.Now().UTC(),
		MaxDurationSeconds: int(d.MaxAge.Seconds()),
	})
	if err != nil {
		return "", false, fmt.Errorf("acquiring %s lock: %w", cat, err)
	}

	path := d.path(cat)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(path)
			return "", false, fmt.Errorf("acquiring %s lock: write failed", cat)
		}
		return token, true, nil
	}
	if !os.IsExist(err) {
		return "", false, fmt.Errorf("acquiring %s lock: %w", cat, err)
	}

	// A lock file exists. Reclaim it only if it is stale or unreadable;
	// a live lock means a refresh is already running.
	if existing, rerr := d.read(cat); rerr == nil {
		if time.Since(existing.AcquiredAt) <= d.MaxAge {
			return "", false, nil
		}
	}

	// Stale or corrupt lock: overwrite atomically so a concurrent
	// reader sees either the old lock or ours, never a partial file.
	tmp := path + ".tmp-" + token
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", false, fmt.Errorf("reclaiming %s lock: %w", cat, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", false, fmt.Errorf("reclaiming %s lock: %w", cat, err)
	}
	return token, true, nil
}

// Release removes the lock for cat, but only while token still owns it.
// If the lock was reclaimed by a newer attempt the file is left alone.
func (d *LockDir) Release(cat metrics.Category, token string) {
	existing, err := d.read(cat)
	if err != nil {
		return
	}
	if existing.OwnerID != token {
		return
	}
	_ = os.Remove(d.path(cat))
}

// Held reports whether a live (non-stale) lock exists for cat.
func (d *LockDir) Held(cat metrics.Category) bool {
	existing, err := d.read(cat)
	if err != nil {
		return false
	}
	return time.Since(existing.AcquiredAt) <= d.MaxAge
}

func (d *LockDir) read(cat metrics.Category) (lockFile, error) {
	data, err := os.ReadFile(d.path(cat))
	if err != nil {
		return lockFile{}, err
	}
	var lf lockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return lockFile{}, err
	}
	return lf, nil
}
