package postprocess

import "github.com/aristath/setuptrader/internal/config"

// MinFloorResult is the outcome of converting an allocation percentage to
// a currency notional and checking it against the minimum tradable size.
type MinFloorResult struct {
	PositionCurrency float64
	Rejected         bool
}

// ApplyMinimumFloor converts allocPct of the portfolio to a currency
// amount and rejects positions too small to execute meaningfully (spec
// §4.7 step 6).
func ApplyMinimumFloor(cfg config.Config, allocPct float64) MinFloorResult {
	notional := allocPct * cfg.PortfolioCurrencyAmount
	if notional < cfg.MinPositionCurrency {
		return MinFloorResult{PositionCurrency: notional, Rejected: true}
	}
	return MinFloorResult{PositionCurrency: notional}
}
