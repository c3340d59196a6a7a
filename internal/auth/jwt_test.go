package auth_test

import (
	"testing"
	"time"

	"orderlyflow/internal/auth"
	"orderlyflow/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newIssuer() *auth.Issuer {
	return auth.NewIssuer(config.JWTConfig{Secret: testSecret, Issuer: "orderlyflow", Expiry: time.Hour})
}

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestGenerateAndParseToken(t *testing.T) {
	// Arrange
	issuer := newIssuer()

	// Act
	token, err := issuer.GenerateToken("user-1", "org-1")
	require.NoError(t, err)
	claims, err := issuer.ParseToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "org-1", claims.OrganizationID)
	assert.Equal(t, "orderlyflow", claims.Issuer)
}

func TestParseToken_InvalidToken(t *testing.T) {
	_, err := newIssuer().ParseToken("invalid-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	other := auth.NewIssuer(config.JWTConfig{Secret: "another-secret"})
	token, err := other.GenerateToken("user-1", "org-1")
	require.NoError(t, err)

	_, err = newIssuer().ParseToken(token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	token := sign(t, jwt.MapClaims{
		"user_id": "user-1",
		"org_id":  "org-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := newIssuer().ParseToken(token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingClaims(t *testing.T) {
	tests := map[string]jwt.MapClaims{
		"no user":         {"org_id": "org-1", "exp": time.Now().Add(time.Hour).Unix()},
		"no organization": {"user_id": "user-1", "exp": time.Now().Add(time.Hour).Unix()},
	}
	for name, claims := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newIssuer().ParseToken(sign(t, claims))

			assert.ErrorIs(t, err, auth.ErrInvalidClaims)
		})
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": "user-1",
		"org_id":  "org-1",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newIssuer().ParseToken(token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
