package formulas

// DrawdownMetrics summarizes the peak-to-trough decline of a
// cumulative equity curve (e.g. a wallet's running realized +
// unrealized P&L over its last 30 days of trades).
type DrawdownMetrics struct {
	MaxDrawdownPct     float64 `json:"max_drawdown_pct"`
	CurrentDrawdownPct float64 `json:"current_drawdown_pct"`
	PeakValue          float64 `json:"peak_value"`
	CurrentValue       float64 `json:"current_value"`
}

// CalculateMaxDrawdown walks a chronological equity curve tracking the
// running peak and returns the largest peak-to-trough decline
// observed, as a percentage (0.25 = 25% drawdown from peak). Returns
// nil when there are fewer than two points to compare.
func CalculateMaxDrawdown(equityCurve []float64) *float64 {
	if len(equityCurve) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := equityCurve[0]

	for _, v := range equityCurve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := (peak - v) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return &maxDrawdown
}

// CalculateDrawdownMetrics returns the full drawdown picture for an
// equity curve: max drawdown, current drawdown from peak, and the
// peak/current values themselves.
func CalculateDrawdownMetrics(equityCurve []float64) *DrawdownMetrics {
	if len(equityCurve) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := equityCurve[0]
	current := equityCurve[len(equityCurve)-1]

	for _, v := range equityCurve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := (peak - v) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - current) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdownPct:     maxDrawdown * 100,
		CurrentDrawdownPct: currentDrawdown * 100,
		PeakValue:          peak,
		CurrentValue:       current,
	}
}
