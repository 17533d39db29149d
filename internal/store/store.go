// Package store holds the SQL for every table. Functions take a
// sqlx.ExtContext so they run the same on a *sqlx.DB or inside a *sqlx.Tx.
// Lookups return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/db"
)

// insertReturningID runs an INSERT written with ? placeholders and returns
// the new row's id.
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// forUpdate appends a row lock on Postgres. SQLite transactions already hold
// the database write lock because they begin IMMEDIATE.
func forUpdate(q sqlx.ExtContext, query string) string {
	if db.IsPostgres(q.DriverName()) {
		return query + " FOR UPDATE"
	}
	return query
}

// Count returns the number of rows in table. Only fixed table names are
// accepted.
func Count(ctx context.Context, q sqlx.ExtContext, table string) (int, error) {
	switch table {
	case "items", "history", "alerts", "export_log", "users":
	default:
		return 0, fmt.Errorf("count: unknown table %q", table)
	}

	var n int
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
