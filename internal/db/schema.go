package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sqliteSchema is the full database schema for SQLite.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY,
    code         TEXT NOT NULL,
    name         TEXT NOT NULL,
    category     TEXT NOT NULL CHECK (category IN ('Medication', 'Equipment', 'Supplies')),
    quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    min_quantity INTEGER NOT NULL DEFAULT 0 CHECK (min_quantity >= 0),
    expiry_date  TEXT,
    location     TEXT NOT NULL DEFAULT '',
    last_scanned DATETIME,
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_code_active
    ON items(code) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS history (
    id            INTEGER PRIMARY KEY,
    item_id       INTEGER NOT NULL REFERENCES items(id),
    item_code     TEXT NOT NULL,
    item_name     TEXT NOT NULL,
    category      TEXT NOT NULL,
    action        TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    balance_after INTEGER NOT NULL CHECK (balance_after >= 0),
    case_id       TEXT NOT NULL DEFAULT '',
    username      TEXT NOT NULL,
    user_id       INTEGER REFERENCES users(id),
    created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_item ON history(item_id, created_at);

CREATE TABLE IF NOT EXISTS alerts (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES items(id),
    kind        TEXT NOT NULL,
    item_code   TEXT NOT NULL,
    item_name   TEXT NOT NULL,
    location    TEXT NOT NULL DEFAULT '',
    expiry_date TEXT,
    details     TEXT NOT NULL DEFAULT '',
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_expiry_once
    ON alerts(item_id, kind) WHERE kind <> 'Low Stock';

CREATE TABLE IF NOT EXISTS export_log (
    id         INTEGER PRIMARY KEY,
    format     TEXT NOT NULL,
    status     TEXT NOT NULL CHECK (status IN ('Success', 'Failed')),
    details    TEXT NOT NULL DEFAULT '',
    username   TEXT NOT NULL,
    object_key TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema is the same schema in the Postgres dialect.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id           BIGSERIAL PRIMARY KEY,
    code         TEXT NOT NULL,
    name         TEXT NOT NULL,
    category     TEXT NOT NULL CHECK (category IN ('Medication', 'Equipment', 'Supplies')),
    quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    min_quantity INTEGER NOT NULL DEFAULT 0 CHECK (min_quantity >= 0),
    expiry_date  DATE,
    location     TEXT NOT NULL DEFAULT '',
    last_scanned TIMESTAMPTZ,
    image        BYTEA,
    image_mime   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_code_active
    ON items(code) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS history (
    id            BIGSERIAL PRIMARY KEY,
    item_id       BIGINT NOT NULL REFERENCES items(id),
    item_code     TEXT NOT NULL,
    item_name     TEXT NOT NULL,
    category      TEXT NOT NULL,
    action        TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    balance_after INTEGER NOT NULL CHECK (balance_after >= 0),
    case_id       TEXT NOT NULL DEFAULT '',
    username      TEXT NOT NULL,
    user_id       BIGINT REFERENCES users(id),
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_item ON history(item_id, created_at);

CREATE TABLE IF NOT EXISTS alerts (
    id          BIGSERIAL PRIMARY KEY,
    item_id     BIGINT NOT NULL REFERENCES items(id),
    kind        TEXT NOT NULL,
    item_code   TEXT NOT NULL,
    item_name   TEXT NOT NULL,
    location    TEXT NOT NULL DEFAULT '',
    expiry_date DATE,
    details     TEXT NOT NULL DEFAULT '',
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_expiry_once
    ON alerts(item_id, kind) WHERE kind <> 'Low Stock';

CREATE TABLE IF NOT EXISTS export_log (
    id         BIGSERIAL PRIMARY KEY,
    format     TEXT NOT NULL,
    status     TEXT NOT NULL CHECK (status IN ('Success', 'Failed')),
    details    TEXT NOT NULL DEFAULT '',
    username   TEXT NOT NULL,
    object_key TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if IsPostgres(db.DriverName()) {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
