// Package domain holds the order aggregate and the consistency rules around
// it: currency-tagged money arithmetic, discount composition, fulfillment
// allocation against ordered quantities, and the append-only event ledger.
//
// Derivation flows one way (lines + fulfillments + discounts -> totals ->
// status) and history flows one way (events -> narrative). The Order is the
// sole mutation surface; every mutating method validates first and fails
// before touching the aggregate, never mid-mutation. Instances are not safe
// for concurrent mutation — the hosting layer serializes writes per order.
package domain
