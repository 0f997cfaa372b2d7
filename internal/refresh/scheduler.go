package refresh

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pulseline/pulseline/internal/cache"
	"github.com/pulseline/pulseline/internal/history"
	"github.com/pulseline/pulseline/internal/metrics"
	"github.com/pulseline/pulseline/internal/provider"
)

// LaunchFunc starts the detached work for a category whose lock was just
// acquired. The token identifies the lock and must reach Release on
// every exit path of the launched work.
type LaunchFunc func(cat metrics.Category, token string) error

// Scheduler coordinates background metric refreshes: it deduplicates
// concurrent attempts through LockDir, runs the provider out-of-band,
// and writes results back through the cache store. All configuration is
// threaded in explicitly; the scheduler reads no globals.
type Scheduler struct {
	Store   *cache.Store
	Locks   *LockDir
	Runner  provider.Runner
	History *history.Logger
	// TTL returns the cache TTL for a category.
	TTL func(cat metrics.Category) time.Duration
	// Timeout bounds one provider call. A refresh that exceeds it
	// self-aborts and releases its lock.
	Timeout time.Duration
	// Launch detaches the refresh work. Nil runs it on a goroutine in
	// the current process, which is what tests and the foreground
	// refresh command want.
	Launch LaunchFunc
	Logger *log.Logger
}

func (s *Scheduler) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard)
}

// TriggerIfIdle starts a background refresh for cat unless one is
// already in flight. It returns immediately; the caller never waits on
// the refresh. The return value reports whether a refresh was started.
func (s *Scheduler) TriggerIfIdle(cat metrics.Category) bool {
	token, ok, err := s.Locks.Acquire(cat)
	if err != nil {
		s.logger().Debug("lock acquisition failed", "category", cat, "err", err)
		return false
	}
	if !ok {
		return false
	}

	if s.Launch == nil {
		go func() { _ = s.Refresh(context.Background(), cat, token) }()
		return true
	}
	if err := s.Launch(cat, token); err != nil {
		// Nothing owns the lock if the launch never started; release it
		// so the next invocation can retry instead of waiting out MaxAge.
		s.Locks.Release(cat, token)
		s.logger().Debug("refresh launch failed", "category", cat, "err", err)
		return false
	}
	return true
}

// Refresh performs one refresh for cat under an already-acquired lock.
// The lock is released on every exit path: success, provider failure,
// parse failure, or timeout. Failures retain the previous cache entry.
func (s *Scheduler) Refresh(ctx context.Context, cat metrics.Category, token string) error {
	defer s.Locks.Release(cat, token)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = s.Locks.MaxAge
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := s.Runner.Fetch(ctx, cat)
	if err != nil {
		s.logger().Debug("provider fetch failed", "category", cat, "err", err)
		return err
	}
	if err := s.Store.Put(cat, payload, s.TTL(cat)); err != nil {
		s.logger().Debug("cache write failed", "category", cat, "err", err)
		return err
	}

	if fields, ok := metrics.HistoryFields(payload); ok && s.History != nil {
		rec := history.Record{
			Timestamp: time.Now().UTC(),
			Category:  string(cat),
			Fields:    fields,
		}
		if err := s.History.Append(rec); err != nil {
			// Trend logging must never fail the refresh itself.
			s.logger().Debug("history append failed", "category", cat, "err", err)
		}
	}
	return nil
}

// ForceRefresh refreshes cat regardless of cache freshness, still
// deduped through the lock. Returns false when another refresh holds
// the lock.
func (s *Scheduler) ForceRefresh(ctx context.Context, cat metrics.Category) (bool, error) {
	token, ok, err := s.Locks.Acquire(cat)
	if err != nil || !ok {
		return false, err
	}
	return true, s.Refresh(ctx, cat, token)
}
