// Package postgresengine provides the PostgreSQL record store for the
// circulation engine.
//
// Every mutation is one atomic transaction scoped to a title: the title row
// is updated with an optimistic version check first and a zero-rows-affected
// result aborts the whole change set with circulation.ErrConflict. The engine
// supports three database libraries behind a common adapter interface:
// pgx.Pool, sql.DB, and sqlx.DB.
//
// SQL is built with goqu and executed as interpolated statements; alongside
// each commit a JSON payload of the change set is written to the change-log
// table for auditing.
package postgresengine
