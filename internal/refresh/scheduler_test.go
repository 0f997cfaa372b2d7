package refresh

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pulseline/pulseline/internal/cache"
	"github.com/pulseline/pulseline/internal/history"
	"github.com/pulseline/pulseline/internal/logging"
	"github.com/pulseline/pulseline/internal/metrics"
)

// fakeRunner implements provider.Runner for testing.
type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	payload metrics.Payload
	err     error
	block   bool
}

func (r *fakeRunner) Fetch(ctx context.Context, cat metrics.Category) (metrics.Payload, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.payload, nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestScheduler(t *testing.T, runner *fakeRunner) (*Scheduler, string) {
	t.Helper()
	dir := t.TempDir()
	sched := &Scheduler{
		Store:   cache.NewStore(filepath.Join(dir, "metrics")),
		Locks:   NewLockDir(filepath.Join(dir, "locks"), 30*time.Second),
		Runner:  runner,
		History: history.NewLogger(filepath.Join(dir, "history.jsonl")),
		TTL:     func(metrics.Category) time.Duration { return time.Minute },
		Timeout: 5 * time.Second,
	}
	// Run refreshes inline so tests observe completed state deterministically.
	sched.Launch = func(cat metrics.Category, token string) error {
		return sched.Refresh(context.Background(), cat, token)
	}
	return sched, dir
}

func TestScheduler_TriggerRefreshesAndLogsHistory(t *testing.T) {
	runner := &fakeRunner{payload: metrics.CostPayload{TodayUSD: 21.13}}
	sched, dir := newTestScheduler(t, runner)

	sched.TriggerIfIdle(metrics.CategoryCost)

	if got := runner.callCount(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
	cached, ok := sched.Store.Get(metrics.CategoryCost)
	if !ok {
		t.Fatal("cache entry missing after successful refresh")
	}
	if got := cached.Payload.(metrics.CostPayload).TodayUSD; got != 21.13 {
		t.Errorf("TodayUSD = %v, want 21.13", got)
	}
	if sched.Locks.Held(metrics.CategoryCost) {
		t.Error("lock still held after refresh")
	}

	data, err := os.ReadFile(filepath.Join(dir, "history.jsonl"))
	if err != nil {
		t.Fatalf("history log missing: %v", err)
	}
	if !strings.Contains(string(data), `"today_usd":21.13`) {
		t.Errorf("history log missing snapshot: %s", data)
	}
}

func TestScheduler_DedupWhileLockHeld(t *testing.T) {
	runner := &fakeRunner{payload: metrics.CostPayload{TodayUSD: 1}}
	sched, _ := newTestScheduler(t, runner)

	if _, ok, _ := sched.Locks.Acquire(metrics.CategoryCost); !ok {
		t.Fatal("setup: could not take lock")
	}

	if sched.TriggerIfIdle(metrics.CategoryCost) {
		t.Error("TriggerIfIdle started a refresh against a live lock")
	}
	if got := runner.callCount(); got != 0 {
		t.Errorf("provider called %d times, want 0", got)
	}
}

func TestScheduler_FailedRefreshRetainsCache(t *testing.T) {
	runner := &fakeRunner{payload: metrics.CostPayload{TodayUSD: 5}}
	sched, dir := newTestScheduler(t, runner)

	if err := sched.Store.Put(metrics.CategoryCost, metrics.CostPayload{TodayUSD: 5}, time.Minute); err != nil {
		t.Fatal(err)
	}
	entryPath := filepath.Join(dir, "metrics", "cost.json")
	before, err := os.ReadFile(entryPath)
	if err != nil {
		t.Fatal(err)
	}

	runner.err = os.ErrPermission
	sched.TriggerIfIdle(metrics.CategoryCost)

	after, err := os.ReadFile(entryPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("failed refresh modified the cache entry")
	}
	if sched.Locks.Held(metrics.CategoryCost) {
		t.Error("lock leaked after failed refresh")
	}
}

func TestScheduler_TimeoutReleasesLock(t *testing.T) {
	runner := &fakeRunner{block: true}
	sched, _ := newTestScheduler(t, runner)
	sched.Timeout = 10 * time.Millisecond

	sched.TriggerIfIdle(metrics.CategoryLimits)

	if sched.Locks.Held(metrics.CategoryLimits) {
		t.Error("lock leaked after provider timeout")
	}
	if _, ok := sched.Store.Get(metrics.CategoryLimits); ok {
		t.Error("timed-out refresh wrote a cache entry")
	}
}

func TestScheduler_LaunchFailureReleasesLock(t *testing.T) {
	runner := &fakeRunner{payload: metrics.CostPayload{TodayUSD: 1}}
	sched, _ := newTestScheduler(t, runner)
	sched.Launch = func(metrics.Category, string) error { return os.ErrNotExist }

	if sched.TriggerIfIdle(metrics.CategoryCost) {
		t.Error("TriggerIfIdle reported success for a failed launch")
	}
	// The lock must be free for the next attempt.
	if _, ok, err := sched.Locks.Acquire(metrics.CategoryCost); err != nil || !ok {
		t.Errorf("lock not released after launch failure: ok=%v err=%v", ok, err)
	}
}

func TestScheduler_ProviderFailureIsLogged(t *testing.T) {
	runner := &fakeRunner{err: os.ErrPermission}
	sched, _ := newTestScheduler(t, runner)

	ctx, logs := logging.NewTestContext(logging.Flags{Verbose: true})
	sched.Logger = logging.FromContext(ctx)

	token, ok, _ := sched.Locks.Acquire(metrics.CategoryCost)
	if !ok {
		t.Fatal("setup: could not take lock")
	}
	if err := sched.Refresh(ctx, metrics.CategoryCost, token); err == nil {
		t.Fatal("expected the provider error to propagate")
	}
	if !strings.Contains(logs.String(), "provider fetch failed") {
		t.Errorf("fetch failure not logged: %q", logs.String())
	}
	if !strings.Contains(logs.String(), "cost") {
		t.Errorf("log line missing category: %q", logs.String())
	}
}

func TestScheduler_ForceRefreshSkippedWhileLocked(t *testing.T) {
	runner := &fakeRunner{payload: metrics.CostPayload{TodayUSD: 1}}
	sched, _ := newTestScheduler(t, runner)

	if _, ok, _ := sched.Locks.Acquire(metrics.CategoryCost); !ok {
		t.Fatal("setup: could not take lock")
	}
	started, err := sched.ForceRefresh(context.Background(), metrics.CategoryCost)
	if err != nil {
		t.Fatalf("ForceRefresh errored: %v", err)
	}
	if started {
		t.Error("ForceRefresh ran despite a live lock")
	}
}

func TestScheduler_ContextNotTrended(t *testing.T) {
	runner := &fakeRunner{payload: metrics.ContextPayload{UsedTokens: 100, MaxTokens: 200, UsedPct: 50}}
	sched, dir := newTestScheduler(t, runner)

	sched.TriggerIfIdle(metrics.CategoryContext)

	if _, ok := sched.Store.Get(metrics.CategoryContext); !ok {
		t.Fatal("cache entry missing")
	}
	if _, err := os.Stat(filepath.Join(dir, "history.jsonl")); !os.IsNotExist(err) {
		t.Error("context refresh should not append history")
	}
}

func TestScheduler_HistoryFailureDoesNotFailRefresh(t *testing.T) {
	runner := &fakeRunner{payload: metrics.CostPayload{TodayUSD: 2}}
	sched, dir := newTestScheduler(t, runner)

	// Point the trend log somewhere unwritable: a path under a regular file.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	sched.History = history.NewLogger(filepath.Join(blocker, "history.jsonl"))

	token, ok, _ := sched.Locks.Acquire(metrics.CategoryCost)
	if !ok {
		t.Fatal("setup: could not take lock")
	}
	if err := sched.Refresh(context.Background(), metrics.CategoryCost, token); err != nil {
		t.Errorf("refresh failed on history append error: %v", err)
	}
	if _, ok := sched.Store.Get(metrics.CategoryCost); !ok {
		t.Error("cache entry missing despite successful refresh")
	}
}
