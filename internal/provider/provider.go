package provider

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/pulseline/pulseline/internal/metrics"
)

// Runner fetches the raw value for one metric category. The production
// implementation shells out to an external command; tests substitute
// their own.
type Runner interface {
	Fetch(ctx context.Context, cat metrics.Category) (metrics.Payload, error)
}

// CommandRunner invokes a configured command per category and parses its
// stdout. Non-zero exit, empty output, and unparseable output are all
// reported as errors; the caller treats them identically as a failed
// refresh.
type CommandRunner struct {
	// Commands maps each category to the argv of its metric provider.
	// Categories with no entry are unavailable.
	Commands map[metrics.Category][]string
}

func (r *CommandRunner) Fetch(ctx context.Context, cat metrics.Category) (metrics.Payload, error) {
	argv, ok := r.Commands[cat]
	if !ok || len(argv) == 0 {
		return nil, fmt.Errorf("no provider command configured for %s", cat)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s provider: %w", cat, err)
	}
	return metrics.ParseProviderOutput(cat, out)
}

// Available reports whether a provider command is configured for cat.
func (r *CommandRunner) Available(cat metrics.Category) bool {
	return len(r.Commands[cat]) > 0
}
