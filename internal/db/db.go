package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	// sqlx only knows "sqlite3" as a question-mark driver.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open opens a database connection for driver and verifies it is reachable.
// For sqlite, target is a file path; for pgx it is a connection string.
func Open(driver, target string) (*sqlx.DB, error) {
	var dsn string
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(target)
	case DriverPostgres:
		dsn = target
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// sqliteDSN sets the pragmas on every pooled connection. Transactions begin
// IMMEDIATE so the write lock is held from the first read of an action.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Set("_txlock", "immediate")
	params.Set("_time_format", "sqlite")

	if strings.HasPrefix(path, "file:") {
		return path + "?" + params.Encode()
	}
	return "file:" + path + "?" + params.Encode()
}

// IsPostgres reports whether db talks to Postgres.
func IsPostgres(driverName string) bool {
	return driverName == DriverPostgres || driverName == "postgres"
}
