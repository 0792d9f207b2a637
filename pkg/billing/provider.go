package billing

import "context"

// Kind distinguishes one-time orders from recurring subscriptions.
// The routing from plan to kind is a fixed function of the plan type,
// never a per-call choice.
type Kind string

const (
	KindOrder        Kind = "order"
	KindSubscription Kind = "subscription"
)

// Status is the processor-reported state of a transaction, normalized
// across providers.
type Status string

const (
	// StatusCaptured means a one-time payment was collected.
	StatusCaptured Status = "captured"
	// StatusActive means a recurring subscription is in good standing.
	StatusActive Status = "active"
	// StatusPending means checkout has not finished; not a failure.
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// OrderRequest describes a one-time purchase checkout.
type OrderRequest struct {
	PriceID     string // provider's price identifier
	CustomerID  string // internal user ID, echoed back via custom data
	Email       string // optional billing email
	Description string
	Amount      int64  // amount in smallest currency unit, recorded for audit
	Currency    string // ISO 4217
}

// SubscriptionRequest describes a recurring-plan checkout.
type SubscriptionRequest struct {
	PriceID    string
	CustomerID string
	Email      string
}

// Provider is the minimal payment-processor interface the entitlement core
// depends on. Implementations must be safe for concurrent use and must
// treat Status lookups as read-only so they can be retried freely.
type Provider interface {
	// CreateOrder creates a pending one-time transaction and returns the
	// processor-issued transaction ID.
	CreateOrder(ctx context.Context, req OrderRequest) (string, error)

	// CreateSubscription creates a pending recurring transaction and
	// returns the processor-issued transaction ID.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (string, error)

	// TransactionStatus asks the processor for the current state of a
	// transaction. Errors indicate the processor was unreachable, never
	// that the payment failed.
	TransactionStatus(ctx context.Context, id string, kind Kind) (Status, error)
}
