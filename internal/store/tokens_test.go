package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/db"
)

func isRevoked(t *testing.T, q sqlx.ExtContext, jti string) bool {
	t.Helper()
	revoked, err := IsTokenRevoked(context.Background(), q, jti)
	if err != nil {
		t.Fatalf("IsTokenRevoked(%q): %v", jti, err)
	}
	return revoked
}

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if isRevoked(t, database, "jti-shift-a") {
		t.Fatal("token revoked before logout")
	}

	if err := RevokeToken(ctx, database, "jti-shift-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if !isRevoked(t, database, "jti-shift-a") {
		t.Error("expected token to be revoked")
	}
	if isRevoked(t, database, "jti-shift-b") {
		t.Error("revoking one token revoked another")
	}

	// A second logout with the same token is a no-op.
	if err := RevokeToken(ctx, database, "jti-shift-a", time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}
}

func TestRevokeTokenStoresUTC(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	zagreb := time.FixedZone("CEST", 2*60*60)
	expires := time.Date(2030, 7, 1, 12, 0, 0, 0, zagreb)
	if err := RevokeToken(ctx, database, "jti-utc", expires); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	var stored time.Time
	err := sqlx.GetContext(ctx, database, &stored, database.Rebind(`SELECT expires_at FROM revoked_tokens WHERE jti = ?`), "jti-utc")
	if err != nil {
		t.Fatalf("reading expiry: %v", err)
	}
	if !stored.Equal(expires) {
		t.Errorf("stored expiry %v, want instant %v", stored, expires)
	}
	if _, offset := stored.Zone(); offset != 0 {
		t.Errorf("stored expiry has offset %ds, want UTC", offset)
	}
}

func TestRevokeTokenPrunesInTransaction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tx, err := database.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTxx: %v", err)
	}
	defer tx.Rollback()

	// An already expired revocation is pruned by the next revoke in the
	// same transaction.
	if err := RevokeToken(ctx, tx, "jti-expired", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("RevokeToken expired: %v", err)
	}
	if err := RevokeToken(ctx, tx, "jti-live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken live: %v", err)
	}
	if isRevoked(t, tx, "jti-expired") {
		t.Error("expired revocation was not pruned")
	}
	if !isRevoked(t, tx, "jti-live") {
		t.Error("live revocation missing inside the transaction")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var n int
	if err := sqlx.GetContext(ctx, database, &n, `SELECT COUNT(*) FROM revoked_tokens`); err != nil {
		t.Fatalf("counting revocations: %v", err)
	}
	if n != 1 {
		t.Errorf("revoked_tokens has %d rows, want 1", n)
	}
}
