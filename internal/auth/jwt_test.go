package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1)
	id := uuid.New()

	tok, err := svc.Generate(id, "a@example.com")
	require.NoError(t, err)

	claims, err := svc.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := NewJWTService("one", 1).Generate(uuid.New(), "a@example.com")
	require.NoError(t, err)

	_, err = NewJWTService("two", 1).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	svc := NewJWTService("secret", 1)
	tok, err := svc.Generate(uuid.New(), "a@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_RejectsNonHMAC(t *testing.T) {
	claims := Claims{UserID: uuid.New(), RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("secret", 1).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Garbage(t *testing.T) {
	_, err := NewJWTService("secret", 1).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
