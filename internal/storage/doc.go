// Package storage provides the persistence layer: subscribers, the problem
// catalog, and the append-only delivery ledger.
//
// Drivers:
//   - sqlite: durable single-file database (default)
//   - memory: in-process store for dev and tests
package storage
