package costing

import "errors"

// Tier is a named bundle of recognition feature toggles with a relative cost
// multiplier used for ranking, not for billing (billing follows the base rate
// plus surcharges in estimate.go).
type Tier string

const (
	TierBudget   Tier = "budget"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
	TierPremium  Tier = "premium"
)

var ErrNoTierAvailable = errors.New("no tier satisfies the given constraints")

// Config is a fully resolved recognition request configuration. Encoding and
// sample rate are not part of the policy; the gateway derives them from the
// audio metadata.
type Config struct {
	Tier           Tier
	MaxSpeakers    int
	EnhancedModel  bool
	WordTimestamps bool
	Model          string // "default" or "video" (premium long-form)
	DataLogging    bool   // cheaper rate in exchange for provider data retention
	Punctuation    bool
}

// DiarizationEnabled reports whether the config asks the provider to separate
// more than a caller/callee pair, which is what the diarization surcharge bills.
func (c Config) DiarizationEnabled() bool { return c.MaxSpeakers > 2 }

// Overrides replace individual tier fields when set.
type Overrides struct {
	MaxSpeakers    *int
	EnhancedModel  *bool
	WordTimestamps *bool
	Model          *string
	DataLogging    *bool
}

type tierSpec struct {
	maxSpeakers    int
	enhancedModel  bool
	wordTimestamps bool
	model          string
	dataLogging    bool
	costMultiplier float64
}

// tierOrder keeps recommendation output deterministic.
var tierOrder = []Tier{TierBudget, TierBalanced, TierQuality, TierPremium}

var tierSpecs = map[Tier]tierSpec{
	TierBudget:   {maxSpeakers: 2, model: "default", dataLogging: true, costMultiplier: 0.67},
	TierBalanced: {maxSpeakers: 4, wordTimestamps: true, model: "default", dataLogging: true, costMultiplier: 1.0},
	TierQuality:  {maxSpeakers: 6, enhancedModel: true, wordTimestamps: true, model: "default", costMultiplier: 1.5},
	TierPremium:  {maxSpeakers: 8, enhancedModel: true, wordTimestamps: true, model: "video", costMultiplier: 2.0},
}

// Tiers returns the fixed tier set in ranking order.
func Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// Resolve maps a tier plus optional overrides to a concrete recognition
// configuration. Unknown tiers resolve as balanced.
func Resolve(tier Tier, ov *Overrides) Config {
	spec, ok := tierSpecs[tier]
	if !ok {
		tier = TierBalanced
		spec = tierSpecs[TierBalanced]
	}

	cfg := Config{
		Tier:           tier,
		MaxSpeakers:    spec.maxSpeakers,
		EnhancedModel:  spec.enhancedModel,
		WordTimestamps: spec.wordTimestamps,
		Model:          spec.model,
		DataLogging:    spec.dataLogging,
		Punctuation:    true,
	}

	if ov != nil {
		if ov.MaxSpeakers != nil {
			cfg.MaxSpeakers = *ov.MaxSpeakers
		}
		if ov.EnhancedModel != nil {
			cfg.EnhancedModel = *ov.EnhancedModel
		}
		if ov.WordTimestamps != nil {
			cfg.WordTimestamps = *ov.WordTimestamps
		}
		if ov.Model != nil {
			cfg.Model = *ov.Model
		}
		if ov.DataLogging != nil {
			cfg.DataLogging = *ov.DataLogging
		}
	}
	return cfg
}
