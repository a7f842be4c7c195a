// Package postgres contains the PostgreSQL implementations of the store
// interfaces. All stores operate over store.DBTX so they can run against a
// plain connection or inside a transaction.
package postgres
