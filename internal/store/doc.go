// Package store provides SQLite-backed durable storage for the shop.
//
// The store holds the full aggregate (products with their order-sequence
// positions, the sales ledger and its per-product revenue, the admin, schema
// version, balance and baseline) plus two append-only logs:
//   - events: every committed notification, keyed by its logical seq
//   - payouts: every refund and withdrawal transfer
//
// # Atomicity
//
// Store implements shop.Journal. Commit writes one Changeset in a single
// transaction and runs the caller's hook (the refund or withdrawal transfer)
// inside it, after the rows are written and before COMMIT. A hook failure
// rolls everything back, so the stock decrement, sale record and payout row
// of a purchase survive together or not at all.
//
// # Schema
//
// Table DDL lives in migrations/*.sql, embedded and applied on Open with
// golang-migrate. This storage schema is independent of the shop's own
// schema version (meta.schema_version), which only the migration controller
// moves.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - one open connection: SQLite allows a single writer
package store
