// Package patterns detects named market situations from a MarketData.
// Detectors are modeled as a capability set rather than an inheritance
// hierarchy (spec §9): a Detector is a pure function MarketData ->
// Situation, and the Registry is a plain list of (id, priority, detector)
// entries. Adding a pattern is a registry entry plus a function; nothing
// else changes.
package patterns

import (
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
)

// Detector inspects a MarketData and reports the bar indices where its
// named condition fires. It must never read forward bars (no look-ahead):
// the value it reports at index i may only depend on bars <= i.
type Detector func(md *marketdata.MarketData) (domain.Situation, error)

// Registration pairs a stable pattern id with its detector and priority.
type Registration struct {
	ID       string
	Priority domain.Priority
	Detect   Detector
}

// Registry is the full capability set, one Registration per id. Order is
// insignificant; the evaluator consumes it as a set.
type Registry []Registration

// Default returns the built-in PRIMARY and SECONDARY detector set.
func Default() Registry {
	return Registry{
		{ID: "double_bottom_after_decline", Priority: domain.PriorityPrimary, Detect: DetectDoubleBottomAfterDecline},
		{ID: "inverse_head_and_shoulders", Priority: domain.PriorityPrimary, Detect: DetectInverseHeadAndShoulders},
		{ID: "bull_flag_after_decline", Priority: domain.PriorityPrimary, Detect: DetectBullFlagAfterDecline},
		{ID: "higher_lows_reversal", Priority: domain.PriorityPrimary, Detect: DetectHigherLowsReversal},
		{ID: "new_multi_period_low_reclaim", Priority: domain.PriorityPrimary, Detect: DetectNewMultiPeriodLowReclaim},

		{ID: "rsi_oversold", Priority: domain.PrioritySecondary, Detect: DetectRSIOversold},
		{ID: "golden_cross", Priority: domain.PrioritySecondary, Detect: DetectGoldenCross},
		{ID: "gap_up_down", Priority: domain.PrioritySecondary, Detect: DetectGapUpDown},
		{ID: "calendar_regularity", Priority: domain.PrioritySecondary, Detect: DetectCalendarRegularity},
	}
}

// RunAll executes every registered detector against md, converting a
// DetectionError from any single detector into "no situations from that
// detector" rather than aborting the run (spec §7).
func (r Registry) RunAll(md *marketdata.MarketData) map[string]domain.Situation {
	out := make(map[string]domain.Situation, len(r))
	for _, reg := range r {
		situation, err := reg.Detect(md)
		if err != nil {
			continue // DetectionError: logged by caller, contributes nothing
		}
		if len(situation.Indices) == 0 {
			continue
		}
		situation.ID = reg.ID
		situation.MarketDataID = md.ID
		situation.Metadata.Priority = reg.Priority
		out[reg.ID] = situation
	}
	return out
}
