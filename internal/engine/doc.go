// Package engine implements the rule execution engine: it consumes inbound
// inventory-change events, decides which campaign rules fire, computes new
// prices, and drives the price-update gateway.
//
// The engine is stateless across invocations; all coordination state lives
// in the shared lock, cooldown, and rule-state stores so that any number of
// horizontally scaled processor instances can run concurrently. A failed
// lock acquisition or an active cooldown is normal contention, never an
// error: the event is acknowledged and webhook redelivery provides retry.
package engine
