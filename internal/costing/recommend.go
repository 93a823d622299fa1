package costing

import (
	"math"
	"sort"
)

// Reference duration used for the budget probe when ranking tiers.
const budgetProbeMinutes = 10.0

const balancedReferenceMultiplier = 1.0

type AccuracyPreference string

const (
	AccuracyHigh     AccuracyPreference = "high"
	AccuracyLow      AccuracyPreference = "low"
	AccuracyBalanced AccuracyPreference = "balanced"
)

type Constraints struct {
	MaxBudget          *float64           `json:"max_budget,omitempty"` // USD, probed at budgetProbeMinutes
	MinSpeakers        int                `json:"min_speakers"`
	AccuracyPreference AccuracyPreference `json:"accuracy_preference,omitempty"`
	PrivacyRequired    bool               `json:"privacy_required"` // rejects data-logging tiers
}

// RecommendTier filters the fixed tier set by hard constraints, ranks the
// survivors by accuracy preference, then drops candidates failing the budget
// probe. Returns ErrNoTierAvailable when the hard constraints eliminate
// every tier.
func RecommendTier(c Constraints) (Tier, error) {
	var survivors []Tier
	for _, t := range tierOrder {
		spec := tierSpecs[t]
		if c.MinSpeakers > spec.maxSpeakers {
			continue
		}
		if c.PrivacyRequired && spec.dataLogging {
			continue
		}
		survivors = append(survivors, t)
	}
	if len(survivors) == 0 {
		return "", ErrNoTierAvailable
	}

	pref := c.AccuracyPreference
	if pref == "" {
		pref = AccuracyBalanced
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		mi := tierSpecs[survivors[i]].costMultiplier
		mj := tierSpecs[survivors[j]].costMultiplier
		switch pref {
		case AccuracyHigh:
			return mi > mj
		case AccuracyLow:
			return mi < mj
		default:
			return math.Abs(mi-balancedReferenceMultiplier) < math.Abs(mj-balancedReferenceMultiplier)
		}
	})

	if c.MaxBudget != nil {
		var affordable []Tier
		for _, t := range survivors {
			est := EstimateCost(budgetProbeMinutes, Resolve(t, nil), 0)
			if est.TotalCost <= *c.MaxBudget {
				affordable = append(affordable, t)
			}
		}
		if len(affordable) == 0 {
			return "", ErrNoTierAvailable
		}
		survivors = affordable
	}

	return survivors[0], nil
}
