// Package store defines the persistence contracts of the task engine.
// Implementations live under internal/platform; services depend only on
// the interfaces here and on TxManager for atomic units of work.
package store
