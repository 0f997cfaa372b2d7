package cli

import (
	"github.com/spf13/cobra"

	"github.com/pulseline/pulseline/internal/config"
	"github.com/pulseline/pulseline/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the metric trend log",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print trend log entries, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		logger := history.NewLogger(cfg.ResolveHistoryFile())

		lines, err := logger.Tail(historyLimit)
		if err != nil {
			return err
		}
		for _, line := range lines {
			outln(line)
		}
		return nil
	},
}

var historyPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the trend log location",
	RunE: func(cmd *cobra.Command, args []string) error {
		outln(config.Get().ResolveHistoryFile())
		return nil
	},
}

func init() {
	historyShowCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Max entries to show (0 = all)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPathCmd)
}
