package plans

import (
	"errors"
	"fmt"
)

// Plan describes a single tier: its quotas, pricing, and the payment
// provider price IDs used at checkout. Recurring plans carry one price ID
// per billing interval; one-time plans carry a single price ID.
type Plan struct {
	Tier        Tier                       `yaml:"tier"`
	Name        string                     `yaml:"name"`
	Description string                     `yaml:"description"`
	Quotas      map[Feature]int64          `yaml:"quotas"` // -1 represents unlimited
	Price       Money                      `yaml:"price"`  // monthly or one-time price, informational
	OneTime     bool                       `yaml:"one_time"`
	PriceIDs    map[BillingInterval]string `yaml:"price_ids"` // provider price IDs
}

// Recurring reports whether the plan is billed on a subscription basis.
// Free plans are neither recurring nor one-time purchases.
func (p Plan) Recurring() bool {
	return !p.OneTime && p.Tier != TierFree
}

// PriceID returns the provider price ID for the requested billing interval.
// One-time plans ignore the annual flag and use their single price ID.
func (p Plan) PriceID(annual bool) string {
	if p.OneTime {
		return p.PriceIDs[BillingIntervalNone]
	}
	if annual {
		return p.PriceIDs[BillingIntervalAnnual]
	}
	return p.PriceIDs[BillingIntervalMonthly]
}

// Quota returns the monthly cap for a feature, or Unlimited.
// Features absent from the plan's quota map are treated as unavailable (0).
func (p Plan) Quota(f Feature) int64 {
	if limit, ok := p.Quotas[f]; ok {
		return limit
	}
	return 0
}

func (p Plan) validate() error {
	if !p.Tier.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("unknown tier %q", p.Tier))
	}
	if p.Name == "" {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s has no name", p.Tier))
	}
	for f, limit := range p.Quotas {
		if limit < Unlimited {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s has invalid quota %d for %s", p.Tier, limit, f))
		}
	}
	if p.OneTime && p.Tier != TierLifetime {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s cannot be one-time", p.Tier))
	}
	if p.Recurring() {
		if p.PriceIDs[BillingIntervalMonthly] == "" {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("recurring plan %s has no monthly price ID", p.Tier))
		}
	}
	return nil
}
