// Package config provides PostgreSQL database configuration for the
// circulation record store.
//
// This package contains factory functions for creating database connections
// using the store's supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB)
// with sensible pool settings. The DSN can be overridden through the
// CIRCULATE_POSTGRES_DSN environment variable.
package config
