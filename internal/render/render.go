package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pulseline/pulseline/internal/cache"
	"github.com/pulseline/pulseline/internal/metrics"
)

// TriggerFunc requests a background refresh for a category. It must
// return without waiting on the refresh.
type TriggerFunc func(cat metrics.Category) bool

// Renderer assembles the status line from cached metrics. It never
// performs a provider call and never fails: a category that cannot be
// formatted falls back to its placeholder.
type Renderer struct {
	Store   *cache.Store
	Trigger TriggerFunc
	NoColor bool
	Logger  *log.Logger

	warned map[metrics.Category]bool
}

func NewRenderer(store *cache.Store, trigger TriggerFunc, noColor bool, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Renderer{
		Store:   store,
		Trigger: trigger,
		NoColor: noColor,
		Logger:  logger,
		warned:  make(map[metrics.Category]bool),
	}
}

// Line renders one status line for the given categories in order. Stale
// entries render with their last known value and kick off a background
// refresh; missing entries render the category placeholder and do the
// same. Rendering one category can never prevent the others from
// appearing.
func (r *Renderer) Line(categories []metrics.Category) string {
	segments := make([]string, 0, len(categories))
	for _, cat := range categories {
		segments = append(segments, r.segment(cat))
	}
	return strings.Join(segments, " · ")
}

func (r *Renderer) segment(cat metrics.Category) string {
	cached, found := r.Store.Get(cat)
	if !found {
		r.trigger(cat)
		return Placeholder(cat)
	}
	if cached.Stale() {
		// Stale but usable: render the old value, refresh out-of-band.
		r.trigger(cat)
	}
	text, err := FormatPayload(cached.Payload, r.NoColor)
	if err != nil {
		r.warnOnce(cat, err)
		return Placeholder(cat)
	}
	return text
}

func (r *Renderer) trigger(cat metrics.Category) {
	if r.Trigger == nil {
		return
	}
	r.Trigger(cat)
}

// warnOnce logs a formatting failure at most once per category per
// process, so a persistently bad entry cannot flood the host's logs
// across redraws within one invocation.
func (r *Renderer) warnOnce(cat metrics.Category, err error) {
	if r.warned[cat] {
		return
	}
	r.warned[cat] = true
	r.Logger.Warn("formatting metric failed", "category", cat, "err", err)
}
