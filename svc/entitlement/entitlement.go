package entitlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/resumekit/pkg/billing"
	"github.com/dmitrymomot/resumekit/pkg/plans"
)

// User is the entitlement view of an account: its plan, the usage counters
// for the current billing period, and the anchor those counters reset from.
type User struct {
	ID          uuid.UUID
	Plan        plans.Tier
	Usage       map[plans.Feature]int64
	CycleAnchor time.Time
	UpdatedAt   time.Time
}

// NewUser returns a fresh free-tier user anchored at now.
func NewUser(id uuid.UUID, now time.Time) *User {
	return &User{
		ID:          id,
		Plan:        plans.TierFree,
		Usage:       make(map[plans.Feature]int64),
		CycleAnchor: now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

// TransactionStatus tracks a payment attempt through its lifecycle.
type TransactionStatus string

const (
	TxCreated   TransactionStatus = "created"
	TxVerified  TransactionStatus = "verified"
	TxApplied   TransactionStatus = "applied"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// legalTransitions encodes the transaction state machine:
// created -> {verified, failed, cancelled}, verified -> applied.
// Everything else fails closed.
var legalTransitions = map[TransactionStatus][]TransactionStatus{
	TxCreated:  {TxVerified, TxFailed, TxCancelled},
	TxVerified: {TxApplied},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to TransactionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further verification.
// Applied, failed, and cancelled transactions are sticky; verified is
// terminal for the verifier but still awaits application.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TxVerified, TxApplied, TxFailed, TxCancelled:
		return true
	}
	return false
}

// Transaction records a single payment attempt with the processor.
// The ID is processor-issued. Amount is captured at initiation time;
// later price changes never affect an in-flight transaction.
type Transaction struct {
	ID        string
	UserID    uuid.UUID
	Kind      billing.Kind
	Tier      plans.Tier
	Annual    bool // billing-frequency flag, meaningless for one-time plans
	Amount    plans.Money
	Status    TransactionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entitlement is the derived permission set exposed to the UI layer.
type Entitlement struct {
	Plan   plans.Tier              `json:"plan"`
	Usage  map[plans.Feature]int64 `json:"usage"`
	Limits map[plans.Feature]int64 `json:"limits"`
}

// LifetimeOffer describes the current state of the bounded Lifetime deal.
type LifetimeOffer struct {
	RemainingSeats int64       `json:"remaining_seats"`
	Price          plans.Money `json:"price"`
}

// Available reports whether the offer should still be shown.
func (o LifetimeOffer) Available() bool {
	return o.RemainingSeats > 0
}

// AppSetting is a mutable operational parameter, writable only through the
// administrative path.
type AppSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// rolloverUsage advances the billing-cycle anchor past all fully elapsed
// monthly periods and reports whether the usage counters must be reset.
// The reset is computed from the elapsed-period count, so any number of
// skipped months collapses into a single fresh period rather than N
// sequential resets, keeping the operation idempotent.
func rolloverUsage(anchor, now time.Time) (time.Time, bool) {
	anchor = anchor.UTC()
	now = now.UTC()

	rolled := false
	for !anchor.AddDate(0, 1, 0).After(now) {
		anchor = anchor.AddDate(0, 1, 0)
		rolled = true
	}
	return anchor, rolled
}
