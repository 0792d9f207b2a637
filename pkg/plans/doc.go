// Package plans defines the static plan catalog for the resumekit
// entitlement core: the plan tiers, their ordering, per-feature monthly
// quotas, and pricing metadata used when creating checkout transactions.
//
// The catalog is pure data. It carries no runtime state and is safe for
// concurrent reads once constructed. Plans are loaded through a Source
// (in-memory for tests, YAML for deployments) and validated up front so
// that a misconfigured catalog fails at startup rather than at checkout.
package plans
