// Package shop is the owned aggregate of catalog, sales ledger, admin gate,
// schema version and custodied balance, and the single serialization point
// through which every operation on it runs.
//
// Each mutating operation follows the same path under one mutex:
//
//  1. plan: validate against the current state without mutating it and
//     build a Changeset (rows to write, events to append, payouts to make)
//  2. commit: hand the Changeset to the Journal, which writes it in one
//     transaction and runs the payout hook (refund or withdrawal transfer)
//     before committing; any failure rolls the whole operation back
//  3. apply: replay the planned effects onto the in-memory state, which
//     cannot fail because the plan already validated them under the lock
//  4. publish: queue the committed events on the Bus
//
// Reads take the read lock and return copies, so a caller never observes a
// partially applied operation.
package shop
