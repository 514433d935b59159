// Package adapters provides database adapter implementations for the
// PostgreSQL record store.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing the
// record store to work seamlessly with any supported connection type,
// including the transactions that make a change-set commit atomic.
package adapters
