// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver. Every store takes a store.DBTX, so the
// same code runs on the pool or inside a transaction handed out by TxManager.
package postgres
