package plans_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/resumekit/pkg/plans"
)

func TestTierHierarchy(t *testing.T) {
	t.Parallel()

	ordered := []plans.Tier{plans.TierFree, plans.TierPremium, plans.TierPro, plans.TierLifetime}
	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i].Outranks(ordered[i-1]), "%s should outrank %s", ordered[i], ordered[i-1])
		assert.False(t, ordered[i-1].Outranks(ordered[i]))
	}

	assert.False(t, plans.TierPro.Outranks(plans.TierPro), "a tier never outranks itself")
	assert.False(t, plans.Tier("enterprise").Outranks(plans.TierFree), "unknown tiers never outrank")
	assert.Equal(t, -1, plans.Tier("enterprise").Rank())

	_, err := plans.ParseTier("enterprise")
	assert.ErrorIs(t, err, plans.ErrUnknownTier)

	tier, err := plans.ParseTier("lifetime")
	require.NoError(t, err)
	assert.Equal(t, plans.TierLifetime, tier)
}

func TestNewCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("default catalog is valid", func(t *testing.T) {
		t.Parallel()

		catalog, err := plans.NewCatalog(ctx, plans.NewInMemSource(plans.Default()...))
		require.NoError(t, err)

		free, err := catalog.Plan(plans.TierFree)
		require.NoError(t, err)
		assert.EqualValues(t, 3, free.Quota(plans.FeatureResumeTailoring))

		premium, err := catalog.Plan(plans.TierPremium)
		require.NoError(t, err)
		assert.EqualValues(t, 40, premium.Quota(plans.FeatureResumeTailoring))
		assert.Equal(t, "pri_premium_annual", premium.PriceID(true))
		assert.Equal(t, "pri_premium_monthly", premium.PriceID(false))

		lifetime, err := catalog.Plan(plans.TierLifetime)
		require.NoError(t, err)
		assert.True(t, lifetime.OneTime)
		assert.Equal(t, "pri_lifetime", lifetime.PriceID(true), "annual flag is ignored for one-time plans")
	})

	t.Run("catalog without a free plan is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := plans.NewCatalog(ctx, plans.NewInMemSource(plans.Plan{
			Tier: plans.TierPro, Name: "Pro",
			PriceIDs: map[plans.BillingInterval]string{plans.BillingIntervalMonthly: "pri_pro"},
		}))
		assert.ErrorIs(t, err, plans.ErrInvalidPlan)
	})

	t.Run("invalid quota is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := plans.NewCatalog(ctx, plans.NewInMemSource(plans.Plan{
			Tier: plans.TierFree, Name: "Free",
			Quotas: map[plans.Feature]int64{plans.FeatureCoverLetter: -2},
		}))
		assert.ErrorIs(t, err, plans.ErrInvalidPlan)
	})

	t.Run("recurring plan without a monthly price ID is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := plans.NewCatalog(ctx, plans.NewInMemSource(
			plans.Plan{Tier: plans.TierFree, Name: "Free"},
			plans.Plan{Tier: plans.TierPremium, Name: "Premium"},
		))
		assert.ErrorIs(t, err, plans.ErrInvalidPlan)
	})
}

func TestCatalogQuota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	catalog, err := plans.NewCatalog(ctx, plans.NewInMemSource(plans.Default()...))
	require.NoError(t, err)

	limit, err := catalog.Quota(plans.TierPremium, plans.FeatureCoverLetter)
	require.NoError(t, err)
	assert.EqualValues(t, 20, limit)

	limit, err = catalog.Quota(plans.TierLifetime, plans.FeatureResumeTailoring)
	require.NoError(t, err)
	assert.Equal(t, plans.Unlimited, limit)

	// Unknown tiers fail closed to the free plan's limits.
	limit, err = catalog.Quota(plans.Tier("enterprise"), plans.FeatureResumeTailoring)
	require.NoError(t, err)
	assert.EqualValues(t, 3, limit)

	_, err = catalog.Quota(plans.TierFree, plans.Feature("interview_prep"))
	assert.ErrorIs(t, err, plans.ErrUnknownFeature)
}
