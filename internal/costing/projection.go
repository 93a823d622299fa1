package costing

// FreeMinutesPerMonth is the provider's monthly no-charge allowance, applied
// once per month before any paid minutes accrue.
const FreeMinutesPerMonth = 60.0

const daysPerBillingMonth = 30

type Projection struct {
	DailyCost       float64 `json:"daily_cost"`
	WeeklyCost      float64 `json:"weekly_cost"`
	MonthlyCost     float64 `json:"monthly_cost"`
	YearlyCost      float64 `json:"yearly_cost"`
	FreeMinutesUsed float64 `json:"free_minutes_used"`
	PaidMinutes     float64 `json:"paid_minutes"`
}

// ProjectMonthlyCost projects spend for a steady workload of callsPerDay calls
// averaging avgDurationMinutes each, under the given tier's resolved config.
func ProjectMonthlyCost(callsPerDay int, avgDurationMinutes float64, tier Tier) Projection {
	if callsPerDay < 0 {
		callsPerDay = 0
	}
	if avgDurationMinutes < 0 {
		avgDurationMinutes = 0
	}

	total := float64(callsPerDay) * avgDurationMinutes * daysPerBillingMonth

	free := FreeMinutesPerMonth
	if total < free {
		free = total
	}
	paid := total - free

	cfg := Resolve(tier, nil)
	monthly := EstimateCost(paid, cfg, 0).TotalCost

	return Projection{
		DailyCost:       monthly / daysPerBillingMonth,
		WeeklyCost:      monthly / daysPerBillingMonth * 7,
		MonthlyCost:     monthly,
		YearlyCost:      monthly * 12,
		FreeMinutesUsed: free,
		PaidMinutes:     paid,
	}
}
