package plans

import (
	"context"
	"errors"
	"maps"
)

// Catalog holds the validated set of plans, keyed by tier.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	plans map[Tier]Plan
}

// NewCatalog builds a catalog from a Source, validating every plan.
// The catalog must contain a free plan so that every user resolves to
// a known tier even before any purchase.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("plans: Source is required")
	}

	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	byTier := make(map[Tier]Plan, len(loaded))
	for _, p := range loaded {
		if err := p.validate(); err != nil {
			return nil, err
		}
		byTier[p.Tier] = p
	}

	if _, ok := byTier[TierFree]; !ok {
		return nil, errors.Join(ErrInvalidPlan, errors.New("catalog has no free plan"))
	}

	return &Catalog{plans: byTier}, nil
}

// Plan returns the plan for a tier.
func (c *Catalog) Plan(t Tier) (Plan, error) {
	p, ok := c.plans[t]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// Quota returns the monthly limit for a feature under a tier.
// Unknown tiers fall back to the free plan's limits, failing closed.
func (c *Catalog) Quota(t Tier, f Feature) (int64, error) {
	p, ok := c.plans[t]
	if !ok {
		p = c.plans[TierFree]
	}
	if _, known := p.Quotas[f]; !known {
		return 0, ErrUnknownFeature
	}
	return p.Quota(f), nil
}

// Quotas returns a copy of all feature limits for a tier.
func (c *Catalog) Quotas(t Tier) map[Feature]int64 {
	p, ok := c.plans[t]
	if !ok {
		p = c.plans[TierFree]
	}
	return maps.Clone(p.Quotas)
}

// Default returns the built-in resumekit catalog. Provider price IDs are
// placeholders that deployments override through a YAML source.
func Default() []Plan {
	return []Plan{
		{
			Tier:        TierFree,
			Name:        "Free",
			Description: "Try the basics",
			Quotas: map[Feature]int64{
				FeatureResumeTailoring: 3,
				FeatureCoverLetter:     1,
			},
		},
		{
			Tier:        TierPremium,
			Name:        "Premium",
			Description: "For active job seekers",
			Quotas: map[Feature]int64{
				FeatureResumeTailoring: 40,
				FeatureCoverLetter:     20,
			},
			Price: Money{Amount: 900, Currency: "USD"},
			PriceIDs: map[BillingInterval]string{
				BillingIntervalMonthly: "pri_premium_monthly",
				BillingIntervalAnnual:  "pri_premium_annual",
			},
		},
		{
			Tier:        TierPro,
			Name:        "Pro",
			Description: "Unlimited document tools",
			Quotas: map[Feature]int64{
				FeatureResumeTailoring: Unlimited,
				FeatureCoverLetter:     Unlimited,
			},
			Price: Money{Amount: 1900, Currency: "USD"},
			PriceIDs: map[BillingInterval]string{
				BillingIntervalMonthly: "pri_pro_monthly",
				BillingIntervalAnnual:  "pri_pro_annual",
			},
		},
		{
			Tier:        TierLifetime,
			Name:        "Lifetime",
			Description: "Pay once, first 1000 seats only",
			Quotas: map[Feature]int64{
				FeatureResumeTailoring: Unlimited,
				FeatureCoverLetter:     Unlimited,
			},
			Price:   Money{Amount: 19900, Currency: "USD"},
			OneTime: true,
			PriceIDs: map[BillingInterval]string{
				BillingIntervalNone: "pri_lifetime",
			},
		},
	}
}
