package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))

	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, IsPolicyViolation(&pgconn.PgError{Code: "42501"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(nil))
}
