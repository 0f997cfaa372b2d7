package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pulseline/pulseline/internal/cache"
	"github.com/pulseline/pulseline/internal/config"
	"github.com/pulseline/pulseline/internal/history"
	"github.com/pulseline/pulseline/internal/logging"
	"github.com/pulseline/pulseline/internal/metrics"
	"github.com/pulseline/pulseline/internal/provider"
	"github.com/pulseline/pulseline/internal/refresh"
	"github.com/pulseline/pulseline/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the status line from cached metrics",
	Long: `Render one status line from the on-disk metric cache. This is the
command the host invokes on every prompt redraw, so it never performs a
provider call itself: stale or missing categories render with their last
known value (or a placeholder) while a detached background worker
refreshes them.

Always exits 0 and always prints a line, even under total cache or
provider failure.`,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())
	cfg := config.Get()

	store := cache.NewStore(cfg.ResolveMetricsDir())
	runner := &provider.CommandRunner{Commands: cfg.ProviderCommands()}
	sched := newScheduler(cfg, store, runner, logger, refresh.ProcessLauncher())

	trigger := func(cat metrics.Category) bool {
		if !runner.Available(cat) {
			// No provider command configured: nothing a worker could do.
			logger.Debug("no provider configured, skipping refresh", "category", cat)
			return false
		}
		return sched.TriggerIfIdle(cat)
	}

	r := render.NewRenderer(store, trigger, noColor, logger)
	outln(r.Line(cfg.RenderCategories()))

	// The host's rendering loop must never be broken by this subsystem.
	return nil
}

// newScheduler wires a refresh scheduler from resolved configuration.
// All paths and durations are threaded in explicitly.
func newScheduler(cfg config.Config, store *cache.Store, runner provider.Runner, logger *log.Logger, launch refresh.LaunchFunc) *refresh.Scheduler {
	return &refresh.Scheduler{
		Store:   store,
		Locks:   refresh.NewLockDir(cfg.ResolveLocksDir(), cfg.MaxDuration()),
		Runner:  runner,
		History: history.NewLogger(cfg.ResolveHistoryFile()),
		TTL:     cfg.CategoryTTL,
		Timeout: cfg.MaxDuration(),
		Launch:  launch,
		Logger:  logger,
	}
}
