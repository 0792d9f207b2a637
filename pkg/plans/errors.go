package plans

import "errors"

var (
	ErrUnknownTier       = errors.New("plans: unknown tier")
	ErrUnknownFeature    = errors.New("plans: unknown quota feature")
	ErrPlanNotFound      = errors.New("plans: plan not found in catalog")
	ErrInvalidPlan       = errors.New("plans: invalid plan configuration")
	ErrFailedToLoadPlans = errors.New("plans: failed to load plans")
)
