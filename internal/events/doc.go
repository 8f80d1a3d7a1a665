// Package events defines the public notifications emitted by the shop after a
// state change commits, and the Bus that delivers them to in-process
// subscribers.
//
// Every event carries a Meta header: a strictly increasing Seq from the
// shop's logical Clock, the OpID of the operation that produced it, and the
// wall time of that operation. Events are persisted in the same transaction
// as the state change they describe, so the durable log and the state never
// disagree. Delivery to subscribers happens afterwards on the Bus goroutine
// and never feeds back into the core.
package events
