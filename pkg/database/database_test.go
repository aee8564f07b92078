package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"}
	wrapped := fmt.Errorf("insert user: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped))
	assert.Equal(t, "users_phone_key", ConstraintName(wrapped))

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("other")))
	assert.Empty(t, ConstraintName(errors.New("other")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("add: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
}

func TestMigrations_Ordered(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "migrations/0001_users.sql", names[0])
	assert.Equal(t, "migrations/0002_catalog.sql", names[1])
}
