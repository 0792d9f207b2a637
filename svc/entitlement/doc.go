// Package entitlement implements the billing entitlement core: it turns a
// completed payment at the external processor into a durable, monotonic
// plan upgrade, enforces per-feature monthly usage quotas with lazy period
// rollover, and allocates the strictly bounded pool of Lifetime seats
// without overselling under concurrent purchases.
//
// The flow is: InitiateUpgrade creates a pending transaction with the
// payment provider; the user completes checkout on the provider's hosted
// page; ConfirmUpgrade re-verifies the transaction directly with the
// provider (client-reported success is never trusted) and, on success,
// applies the upgrade as one atomic unit - transaction marked applied
// exactly once, plan raised only if the new tier outranks the current one,
// and a Lifetime seat consumed via a single conditional check-and-increment.
//
// All mutable state lives behind the Store interface so correctness holds
// across processes; the in-memory store exists for tests and development
// while the Postgres store is the production implementation.
package entitlement
