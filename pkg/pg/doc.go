// Package pg bootstraps the PostgreSQL layer for resumekit services: a
// pgx/v5 connection pool with startup retries, goose schema migrations, a
// health-check probe, and helpers for classifying common pg errors.
//
// The entitlement core keeps its one hard consistency requirement - the
// lifetime seat pool never overselling - inside Postgres transactions, so
// this package deliberately exposes the raw pool rather than wrapping it.
package pg
