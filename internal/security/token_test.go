package security_test

import (
	"testing"
	"time"

	"github.com/crmforge/crmforge/internal/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-32-chars!!"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func providerClaims(userID uuid.UUID, email string) security.Claims {
	now := time.Now()
	return security.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "crmforge",
			Audience:  jwt.ClaimStrings{"crmforge-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestTokenVerifier_Verify(t *testing.T) {
	verifier := security.NewTokenVerifier(testSecret, "crmforge", "crmforge-api")

	userID := uuid.New()
	token := signToken(t, testSecret, providerClaims(userID, "test@example.com"))

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
}

func TestTokenVerifier_RejectsBadTokens(t *testing.T) {
	verifier := security.NewTokenVerifier(testSecret, "crmforge", "crmforge-api")
	userID := uuid.New()

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("invalid-token")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := verifier.Verify("")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "different-secret-key-32-chars!!", providerClaims(userID, "test@example.com"))
		_, err := verifier.Verify(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := providerClaims(userID, "test@example.com")
		claims.Issuer = "someone-else"
		_, err := verifier.Verify(signToken(t, testSecret, claims))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := providerClaims(userID, "test@example.com")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := verifier.Verify(signToken(t, testSecret, claims))
		assert.Error(t, err)
	})

	t.Run("non-uuid subject", func(t *testing.T) {
		claims := providerClaims(userID, "test@example.com")
		claims.Subject = "user-42"
		_, err := verifier.Verify(signToken(t, testSecret, claims))
		assert.Error(t, err)
	})
}
