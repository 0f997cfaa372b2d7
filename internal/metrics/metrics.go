package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category identifies one metric family rendered on the status line.
// Each category owns its payload schema and its cache/lock files.
type Category string

const (
	CategoryCost    Category = "cost"
	CategoryContext Category = "context"
	CategoryLimits  Category = "limits"
)

// All returns every known category in render order.
func All() []Category {
	return []Category{CategoryCost, CategoryContext, CategoryLimits}
}

// Known reports whether id names a registered category.
func Known(id string) bool {
	for _, c := range All() {
		if string(c) == id {
			return true
		}
	}
	return false
}

// Payload is the decoded metric data for one category.
type Payload interface {
	Category() Category
	Validate() error
}

// CostPayload holds session spend figures in US dollars.
type CostPayload struct {
	TodayUSD   float64 `json:"today_usd"`
	SessionUSD float64 `json:"session_usd,omitempty"`
}

func (CostPayload) Category() Category { return CategoryCost }

func (p CostPayload) Validate() error {
	if p.TodayUSD < 0 || p.SessionUSD < 0 {
		return fmt.Errorf("cost payload: negative amount")
	}
	return nil
}

// ContextPayload holds context-window consumption for the active session.
type ContextPayload struct {
	UsedTokens int `json:"used_tokens"`
	MaxTokens  int `json:"max_tokens"`
	UsedPct    int `json:"used_pct"`
}

func (ContextPayload) Category() Category { return CategoryContext }

func (p ContextPayload) Validate() error {
	if p.UsedTokens < 0 || p.MaxTokens < 0 {
		return fmt.Errorf("context payload: negative token count")
	}
	if p.UsedPct < 0 || p.UsedPct > 100 {
		return fmt.Errorf("context payload: used_pct %d out of range", p.UsedPct)
	}
	return nil
}

// LimitsPayload holds rate-limit utilization for the session and weekly
// windows.
type LimitsPayload struct {
	SessionPct      int        `json:"session_pct"`
	WeekPct         int        `json:"week_pct"`
	SessionResetsAt *time.Time `json:"session_resets_at,omitempty"`
}

func (LimitsPayload) Category() Category { return CategoryLimits }

func (p LimitsPayload) Validate() error {
	if p.SessionPct < 0 || p.SessionPct > 100 {
		return fmt.Errorf("limits payload: session_pct %d out of range", p.SessionPct)
	}
	if p.WeekPct < 0 || p.WeekPct > 100 {
		return fmt.Errorf("limits payload: week_pct %d out of range", p.WeekPct)
	}
	return nil
}

// Decode unmarshals raw JSON into the typed payload for cat and validates
// it. The category tag, not the JSON shape, selects the schema.
func Decode(cat Category, raw []byte) (Payload, error) {
	var p Payload
	switch cat {
	case CategoryCost:
		var v CostPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", cat, err)
		}
		p = v
	case CategoryContext:
		var v ContextPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", cat, err)
		}
		p = v
	case CategoryLimits:
		var v LimitsPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", cat, err)
		}
		p = v
	default:
		return nil, fmt.Errorf("unknown category %q", cat)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseProviderOutput decodes raw provider output for cat. Providers
// normally emit JSON; the cost category additionally accepts a bare
// decimal (some cost tools print just the number).
func ParseProviderOutput(cat Category, raw []byte) (Payload, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("empty provider output for %s", cat)
	}
	if cat == CategoryCost && !strings.HasPrefix(trimmed, "{") {
		amount, err := strconv.ParseFloat(strings.TrimPrefix(trimmed, "$"), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s provider output: %w", cat, err)
		}
		p := CostPayload{TodayUSD: amount}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil
	}
	return Decode(cat, []byte(trimmed))
}

// HistoryFields returns the flattened usage fields recorded in the trend
// log for p, or ok=false when the category is not trended. Context is a
// point-in-time session detail with no trend value, so only cost and
// limits are recorded.
func HistoryFields(p Payload) (map[string]any, bool) {
	switch v := p.(type) {
	case CostPayload:
		fields := map[string]any{"today_usd": v.TodayUSD}
		if v.SessionUSD > 0 {
			fields["session_usd"] = v.SessionUSD
		}
		return fields, true
	case LimitsPayload:
		return map[string]any{
			"session_pct": v.SessionPct,
			"week_pct":    v.WeekPct,
		}, true
	default:
		return nil, false
	}
}
