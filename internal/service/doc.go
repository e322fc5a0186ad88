// Package service implements the task lifecycle, invite, project and
// notification operations on top of the store interfaces.
//
// Every mutating operation runs as one unit of work through store.TxManager:
// the state change and its history or ledger rows commit together or not at
// all. Domain events are emitted only after the unit of work commits.
//
// Service methods return the kind-level sentinels declared in errors.go so
// that the API layer can map them to HTTP status codes with errors.Is.
package service
