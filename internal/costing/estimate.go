package costing

import "fmt"

// Per-minute base rates in USD. Data logging trades privacy for the lower rate.
const (
	RateStandardPerMinute    = 0.024
	RateDataLoggingPerMinute = 0.016
)

// Premium feature surcharges, each a fixed percentage of the discounted base
// cost. Surcharges are additive, never compounded on each other.
const (
	surchargeDiarizationPct    = 0.20
	surchargeEnhancedPct       = 0.25
	surchargeWordTimestampsPct = 0.10
	surchargePremiumModelPct   = 0.50
)

// Volume discount bands over the current month's cumulative minutes. Bands are
// half-open [min, max); volume outside every band pays full rate.
type discountBand struct {
	minMinutes float64
	maxMinutes float64
	multiplier float64
}

var discountBands = []discountBand{
	{0, 500, 1.00},
	{500, 1000, 0.95},
	{1000, 10000, 0.85},
	{10000, 1 << 30, 0.70},
}

type Surcharge struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

// Estimate is a pure computation result. It is embedded into conversation
// metadata and log entries, never persisted on its own.
type Estimate struct {
	DurationMinutes    float64     `json:"duration_minutes"`
	RatePerMinute      float64     `json:"rate_per_minute"`
	DiscountMultiplier float64     `json:"discount_multiplier"`
	BaseCost           float64     `json:"base_cost"`
	Surcharges         []Surcharge `json:"surcharges,omitempty"`
	TotalCost          float64     `json:"total_cost"`
	Currency           string      `json:"currency"`
	Breakdown          []string    `json:"breakdown"`
}

func discountMultiplier(monthlyUsageMinutes float64) float64 {
	for _, b := range discountBands {
		if monthlyUsageMinutes >= b.minMinutes && monthlyUsageMinutes < b.maxMinutes {
			return b.multiplier
		}
	}
	return 1.0
}

func baseRate(dataLogging bool) float64 {
	if dataLogging {
		return RateDataLoggingPerMinute
	}
	return RateStandardPerMinute
}

// EstimateCost prices durationMinutes of audio under cfg, given the minutes
// already consumed this billing month.
func EstimateCost(durationMinutes float64, cfg Config, monthlyUsageMinutes float64) Estimate {
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	rate := baseRate(cfg.DataLogging)
	mult := discountMultiplier(monthlyUsageMinutes)
	base := durationMinutes * rate * mult

	est := Estimate{
		DurationMinutes:    durationMinutes,
		RatePerMinute:      rate,
		DiscountMultiplier: mult,
		BaseCost:           base,
		TotalCost:          base,
		Currency:           "USD",
	}
	est.Breakdown = append(est.Breakdown,
		fmt.Sprintf("base: %.1f min x $%.3f/min x %.2f = $%.4f", durationMinutes, rate, mult, base))

	addSurcharge := func(name string, pct float64) {
		amount := base * pct
		est.Surcharges = append(est.Surcharges, Surcharge{Name: name, Percent: pct, Amount: amount})
		est.TotalCost += amount
		est.Breakdown = append(est.Breakdown,
			fmt.Sprintf("%s: +%.0f%% of base = $%.4f", name, pct*100, amount))
	}

	if cfg.DiarizationEnabled() {
		addSurcharge("speaker diarization", surchargeDiarizationPct)
	}
	if cfg.EnhancedModel {
		addSurcharge("enhanced model", surchargeEnhancedPct)
	}
	if cfg.WordTimestamps {
		addSurcharge("word timestamps", surchargeWordTimestampsPct)
	}
	if cfg.Model == "video" {
		addSurcharge("premium model", surchargePremiumModelPct)
	}

	est.Breakdown = append(est.Breakdown, fmt.Sprintf("total: $%.4f", est.TotalCost))
	return est
}

// ResolveConfig is the policy's main entry point: tier (plus overrides) and
// current monthly usage in, resolved request config and price estimate out.
func ResolveConfig(tier Tier, ov *Overrides, durationMinutes, monthlyUsageMinutes float64) (Config, Estimate) {
	cfg := Resolve(tier, ov)
	return cfg, EstimateCost(durationMinutes, cfg, monthlyUsageMinutes)
}
