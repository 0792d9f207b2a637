// Package billing defines the payment-processor boundary for the
// entitlement core and ships a Paddle implementation of it.
//
// The boundary is deliberately narrow: create a one-time order, create a
// recurring subscription, and ask the processor for the authoritative
// status of a transaction. Status lookups are the trust boundary - the
// entitlement core never accepts a client-supplied "payment succeeded"
// signal, it always re-verifies against the processor through this package.
package billing
