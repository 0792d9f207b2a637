package entitlement

import "errors"

var (
	// ErrProviderNotConfigured means payment provider credentials are
	// absent. Fatal configuration problem, surfaced to operators.
	ErrProviderNotConfigured = errors.New("entitlement: payment provider not configured")

	// ErrProviderUnavailable means the processor was unreachable or
	// errored. Retryable; never proof of payment failure.
	ErrProviderUnavailable = errors.New("entitlement: payment provider unavailable")

	// ErrVerificationFailed means the processor explicitly reported the
	// transaction as failed or cancelled. Terminal, no entitlement granted.
	ErrVerificationFailed = errors.New("entitlement: payment verification failed")

	// ErrPaymentPending means checkout has not completed yet. Retryable.
	ErrPaymentPending = errors.New("entitlement: payment still pending")

	// ErrSeatsExhausted means the Lifetime pool sold out between
	// initiation and confirmation. Terminal; the caller owes the user a
	// refund through the processor.
	ErrSeatsExhausted = errors.New("entitlement: lifetime seats exhausted")

	// ErrQuotaExceeded means a feature use was denied by the plan's
	// monthly limit. Expected outcome, not an exceptional condition.
	ErrQuotaExceeded = errors.New("entitlement: usage quota exceeded")

	// ErrNotAnUpgrade means the requested tier does not outrank the
	// user's current plan.
	ErrNotAnUpgrade = errors.New("entitlement: requested plan is not an upgrade")

	ErrUserNotFound            = errors.New("entitlement: user not found")
	ErrTransactionNotFound     = errors.New("entitlement: transaction not found")
	ErrTransactionExists       = errors.New("entitlement: transaction already exists")
	ErrInvalidTransactionState = errors.New("entitlement: invalid transaction state transition")
	ErrInvalidAdminCredential  = errors.New("entitlement: invalid administrative credential")
	ErrInvalidPrice            = errors.New("entitlement: invalid price")
	ErrSettingNotFound         = errors.New("entitlement: setting not found")
)
