package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulseline/pulseline/internal/cache"
	"github.com/pulseline/pulseline/internal/config"
	"github.com/pulseline/pulseline/internal/display"
	"github.com/pulseline/pulseline/internal/metrics"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached metrics",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache status per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		store := cache.NewStore(cfg.ResolveMetricsDir())

		type cacheInfo struct {
			Status     string `json:"status"`
			AgeSeconds *int   `json:"age_seconds,omitempty"`
			TTLSeconds int    `json:"ttl_seconds"`
		}

		cacheData := make(map[string]cacheInfo)
		for _, cat := range metrics.All() {
			info := cacheInfo{
				Status:     "none",
				TTLSeconds: int(cfg.CategoryTTL(cat).Seconds()),
			}
			if cached, ok := store.Get(cat); ok {
				age := int(cached.Age.Seconds())
				info.AgeSeconds = &age
				if cached.Stale() {
					info.Status = "stale"
				} else {
					info.Status = "fresh"
				}
			}
			cacheData[string(cat)] = info
		}

		if jsonOutput {
			return display.OutputJSON(outWriter, cacheData)
		}

		if quiet {
			for _, cat := range metrics.All() {
				out("%s: %s\n", cat, cacheData[string(cat)].Status)
			}
			return nil
		}

		var rows [][]string
		for _, cat := range metrics.All() {
			info := cacheData[string(cat)]
			status := "—"
			age := "—"
			switch info.Status {
			case "fresh":
				status = "✓ Fresh"
			case "stale":
				status = "⚠ Stale"
			}
			if info.AgeSeconds != nil {
				age = (time.Duration(*info.AgeSeconds) * time.Second).String()
			}
			rows = append(rows, []string{
				string(cat),
				status,
				age,
				(time.Duration(info.TTLSeconds) * time.Second).String(),
			})
		}

		outln(display.NewTableWithOptions(
			[]string{"Category", "Status", "Age", "TTL"},
			rows,
			display.TableOptions{Title: "Metric Cache", NoColor: noColor, MaxWidth: display.TerminalWidth()},
		))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [category]",
	Short: "Clear cached metrics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		store := cache.NewStore(cfg.ResolveMetricsDir())

		cats := metrics.All()
		if len(args) == 1 {
			if !metrics.Known(args[0]) {
				return fmt.Errorf("unknown category: %q", args[0])
			}
			cats = []metrics.Category{metrics.Category(args[0])}
		}

		for _, cat := range cats {
			if err := store.Clear(cat); err != nil {
				return err
			}
		}
		if !quiet {
			out("Cleared %d cache entries\n", len(cats))
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
