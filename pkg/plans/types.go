package plans

// Tier identifies a plan level. Tiers form a strict hierarchy used by the
// entitlement core to guarantee plans are only ever raised, never lowered.
type Tier string

const (
	TierFree     Tier = "free"
	TierPremium  Tier = "premium"
	TierPro      Tier = "pro"
	TierLifetime Tier = "lifetime"
)

// tierRanks defines the hierarchy order free < premium < pro < lifetime.
var tierRanks = map[Tier]int{
	TierFree:     0,
	TierPremium:  1,
	TierPro:      2,
	TierLifetime: 3,
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the tier's position in the hierarchy, -1 for unknown tiers.
func (t Tier) Rank() int {
	if r, ok := tierRanks[t]; ok {
		return r
	}
	return -1
}

// Outranks reports whether t is strictly higher than other in the hierarchy.
// Unknown tiers never outrank anything.
func (t Tier) Outranks(other Tier) bool {
	return t.Valid() && t.Rank() > other.Rank()
}

// ParseTier converts a raw string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", ErrUnknownTier
	}
	return t, nil
}

// Feature is a named, quota-limited action.
type Feature string

const (
	FeatureResumeTailoring Feature = "resume_tailoring"
	FeatureCoverLetter     Feature = "cover_letter"
)

// Features lists every quota feature known to the catalog.
var Features = []Feature{FeatureResumeTailoring, FeatureCoverLetter}

// Unlimited marks a feature with no monthly cap (-1 for SQL compatibility).
const Unlimited int64 = -1

// BillingInterval represents how often a recurring plan is charged.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // one-time purchases
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Money represents a monetary amount in the smallest currency unit.
// $129.00 USD is Money{Amount: 12900, Currency: "USD"}.
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}
