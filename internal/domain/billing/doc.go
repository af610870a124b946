// Package billing holds the domain model of the billing ledger: recurring
// billing plans, the payment installments generated from them, and the
// append-only cash-flow ledger.
//
// Installments that belong to the same plan form a series. A series is never
// stored as a parent/child list; it is derived from client id plus base
// description (the description with any "(i/N)" suffix removed) and has to be
// re-resolved from the store before every mutation that depends on it.
//
// Invariants kept by this package and the application services built on it:
//   - series contiguity: numbers are exactly 1..N and every member carries total N
//   - status paid requires a payment date
//   - status partially_paid requires 0 < paid amount < amount
//   - at most one cash-flow entry per installment id
package billing
