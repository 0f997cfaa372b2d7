package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pulseline/pulseline/internal/cache"
	"github.com/pulseline/pulseline/internal/config"
	"github.com/pulseline/pulseline/internal/display"
	"github.com/pulseline/pulseline/internal/logging"
	"github.com/pulseline/pulseline/internal/metrics"
	"github.com/pulseline/pulseline/internal/provider"
)

var (
	refreshWorker    bool
	refreshCategory  string
	refreshLockToken string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [category...]",
	Short: "Refresh cached metrics now",
	Long: `Force a refresh of the given categories (all configured categories by
default), regardless of cache freshness. Refreshes are still deduplicated
through the per-category locks, so a category already being refreshed in
the background is skipped.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshWorker, "worker", false, "Run as a detached refresh worker")
	refreshCmd.Flags().StringVar(&refreshCategory, "category", "", "Category to refresh (worker mode)")
	refreshCmd.Flags().StringVar(&refreshLockToken, "lock-token", "", "Owner token of the already-acquired lock (worker mode)")
	_ = refreshCmd.Flags().MarkHidden("worker")
	_ = refreshCmd.Flags().MarkHidden("category")
	_ = refreshCmd.Flags().MarkHidden("lock-token")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if refreshWorker {
		return runRefreshWorker(cmd.Context())
	}
	return runRefreshForeground(cmd.Context(), args)
}

// runRefreshWorker performs one refresh for a detached invocation whose
// lock was already acquired by the renderer that spawned it. The lock
// token travels with the process so the lock is released on every exit
// path even though acquisition happened elsewhere.
func runRefreshWorker(ctx context.Context) error {
	if !metrics.Known(refreshCategory) {
		return fmt.Errorf("unknown category: %q", refreshCategory)
	}
	if refreshLockToken == "" {
		return fmt.Errorf("worker mode requires --lock-token")
	}

	logger := logging.FromContext(ctx)
	cfg := config.Get()
	store := cache.NewStore(cfg.ResolveMetricsDir())
	runner := &provider.CommandRunner{Commands: cfg.ProviderCommands()}
	sched := newScheduler(cfg, store, runner, logger, nil)

	return sched.Refresh(ctx, metrics.Category(refreshCategory), refreshLockToken)
}

func runRefreshForeground(ctx context.Context, args []string) error {
	logger := logging.FromContext(ctx)
	cfg := config.Get()
	store := cache.NewStore(cfg.ResolveMetricsDir())
	runner := &provider.CommandRunner{Commands: cfg.ProviderCommands()}
	sched := newScheduler(cfg, store, runner, logger, nil)

	cats, err := refreshTargets(cfg, runner, args)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return fmt.Errorf("no provider commands configured. Run 'pulseline init' and set per-category commands in %s", config.ConfigFile())
	}

	ids := make([]string, len(cats))
	for i, cat := range cats {
		ids[i] = string(cat)
	}

	results := make(map[string]display.CompletionInfo, len(cats))
	doRefresh := func(onComplete func(display.CompletionInfo)) {
		for _, cat := range cats {
			info := display.CompletionInfo{Category: string(cat)}
			started, err := sched.ForceRefresh(ctx, cat)
			switch {
			case !started && err == nil:
				info.Skipped = true
			case err != nil:
				info.Error = err.Error()
			default:
				info.Success = true
			}
			results[info.Category] = info
			onComplete(info)
		}
	}

	if display.SpinnerShouldShow(quiet, jsonOutput, !isTerminal()) {
		if err := display.SpinnerRun(ids, doRefresh); err != nil {
			return err
		}
	} else {
		doRefresh(func(display.CompletionInfo) {})
	}

	return reportRefreshResults(results)
}

// refreshTargets resolves which categories a foreground refresh covers:
// the explicit args, or every category with a configured provider.
func refreshTargets(cfg config.Config, runner *provider.CommandRunner, args []string) ([]metrics.Category, error) {
	if len(args) > 0 {
		var cats []metrics.Category
		for _, id := range args {
			if !metrics.Known(id) {
				return nil, fmt.Errorf("unknown category: %q", id)
			}
			cats = append(cats, metrics.Category(id))
		}
		return cats, nil
	}
	var cats []metrics.Category
	for _, cat := range metrics.All() {
		if runner.Available(cat) {
			cats = append(cats, cat)
		}
	}
	return cats, nil
}

func reportRefreshResults(results map[string]display.CompletionInfo) error {
	if jsonOutput {
		return display.OutputJSON(outWriter, results)
	}

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	failed := 0
	for _, id := range ids {
		info := results[id]
		switch {
		case info.Skipped:
			out("%s: skipped (refresh already in flight)\n", id)
		case info.Success:
			out("%s: refreshed\n", id)
		default:
			failed++
			out("%s: failed (%s)\n", id, info.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d categories failed to refresh", failed, len(results))
	}
	return nil
}
