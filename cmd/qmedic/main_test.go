package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qmedic/qmedic/internal/config"
	"github.com/qmedic/qmedic/internal/db"
	"github.com/qmedic/qmedic/internal/model"
	"github.com/qmedic/qmedic/internal/store"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("started")
	logger.Warn("slow")
	logger.Error("broken")

	assert.Contains(t, stdout.String(), "started")
	assert.Contains(t, stdout.String(), "slow")
	assert.NotContains(t, stdout.String(), "broken")
	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stderr.String(), "broken")
	assert.Contains(t, stderr.String(), "component=test")
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	require.NoError(t, err)
	b, err := generatePassword(16)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestBootstrapAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	password, err := bootstrapAdmin(ctx, database, "Head Nurse")
	require.NoError(t, err)
	require.NotEmpty(t, password)

	user, err := store.GetUserByUsername(ctx, database, "Head Nurse")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)))

	// Second start leaves the existing account alone.
	password, err = bootstrapAdmin(ctx, database, "Someone Else")
	require.NoError(t, err)
	assert.Empty(t, password)

	n, err := store.Count(ctx, database, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParseFlags(t *testing.T) {
	f, fs, err := parseFlags([]string{"-d", "/tmp/x.db", "-addr", ":9999", "-u", "root"})
	require.NoError(t, err)
	assert.Equal(t, "root", f.adminUser)

	cfg := config.Default()
	cfg.Server.LogPath = "keep.log"
	applyFlags(cfg, f, fs)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "keep.log", cfg.Server.LogPath, "unset flags leave config alone")

	f, fs, err = parseFlags([]string{"-db", "postgres://localhost/qmedic"})
	require.NoError(t, err)
	cfg = config.Default()
	cfg.Database.Driver = config.DriverPostgres
	applyFlags(cfg, f, fs)
	assert.Equal(t, "postgres://localhost/qmedic", cfg.Database.DSN)

	_, _, err = parseFlags([]string{"serve"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unexpected argument"))
}
