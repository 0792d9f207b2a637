package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/resumekit/pkg/plans"
)

// Store is the persistence boundary for all entitlement state. The seat
// pool and user plans are the only shared resources requiring serialized
// mutation, and both are owned here so correctness holds across multiple
// concurrent request handlers and processes.
type Store interface {
	// GetUser returns the entitlement state for a user.
	// Returns ErrUserNotFound if the user does not exist.
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	// SaveUser creates or updates a user's entitlement state.
	SaveUser(ctx context.Context, u *User) error

	// GetTransaction returns a transaction by its processor-issued ID.
	// Returns ErrTransactionNotFound if unknown.
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	// CreateTransaction persists a new transaction in created state.
	// Returns ErrTransactionExists on duplicate IDs.
	CreateTransaction(ctx context.Context, tx *Transaction) error

	// SetTransactionStatus moves a transaction from one status to another
	// as a conditional update. Returns ErrInvalidTransactionState when the
	// stored status is not `from`, so racing verifiers fail closed instead
	// of overwriting a terminal state.
	SetTransactionStatus(ctx context.Context, id string, from, to TransactionStatus, now time.Time) error

	// ApplyTransaction performs the entitlement commit as one atomic unit:
	// mark the transaction applied iff it is currently verified, raise the
	// user's plan iff the transaction tier outranks the current one, and
	// for lifetime tiers consume one seat via a single conditional
	// check-and-increment. An already-applied transaction is a no-op
	// returning nil. Returns ErrSeatsExhausted (leaving the transaction
	// verified) when the pool is full at decision time.
	ApplyTransaction(ctx context.Context, id string, now time.Time) error

	// SyncUsage lazily rolls the user's usage counters over any elapsed
	// billing periods and returns the refreshed state.
	SyncUsage(ctx context.Context, userID uuid.UUID, now time.Time) (*User, error)

	// IncrementUsage rolls over elapsed periods and then increments the
	// feature counter, atomically per user.
	IncrementUsage(ctx context.Context, userID uuid.UUID, f plans.Feature, now time.Time) error

	// RemainingSeats returns capacity minus consumed, clamped at zero.
	RemainingSeats(ctx context.Context) (int64, error)

	// Setting returns the value for an operational setting key.
	// Returns ErrSettingNotFound when unset.
	Setting(ctx context.Context, key string) (string, error)

	// SetSetting writes an operational setting. Callers are responsible
	// for gating this behind the administrative credential.
	SetSetting(ctx context.Context, key, value string, now time.Time) error
}
