// Package harness runs YAML scenarios against a real shop.
//
// Each scenario gets a fresh in-memory SQLite store, a step clock and
// sequential operation ids ("op-0001", ...), so the same scenario always
// commits the same events with the same sequence numbers. A run produces a
// trace: one entry per setup and flow step with its outcome, followed by the
// committed event log. Traces are compared against golden files in
// testdata/golden.
//
// A scenario looks like:
//
//	name: refund
//	description: Overpayment is refunded to the buyer.
//	admin: admin
//	migrate_to: 2
//	setup:
//	  - op: add
//	    as: admin
//	    args: {id: 1, name: Cola, price: 100, stock: 10}
//	flow:
//	  - op: purchase
//	    as: bob
//	    args: {id: 1, paid: 150}
//	    expect:
//	      result: {refund: 50, stock: 9}
//	assertions:
//	  - type: balance
//	    value: 100
//
// A flow step without expect must succeed. expect.error names the error
// kind the step must fail with; expect.result is a subset match on the
// step's result object.
package harness
