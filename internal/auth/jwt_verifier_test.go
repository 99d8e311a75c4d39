package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/domain"
	"loom/internal/domain/models"
)

func testVerifier(t *testing.T, requiredRole string) (*KeyfuncJWTVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	kf := func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil }
	return NewKeyfuncVerifier(kf, requiredRole, logger), key
}

func sign(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims *models.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	var signed string
	var err error
	if method == jwt.SigningMethodHS256 {
		signed, err = token.SignedString([]byte("secret"))
	} else {
		signed, err = token.SignedString(key)
	}
	require.NoError(t, err)
	return signed
}

func claimsFor(subject, role string, expiresIn time.Duration) *models.Claims {
	return &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
		Role: role,
	}
}

func TestVerifyToken(t *testing.T) {
	verifier, key := testVerifier(t, "authenticated")

	tests := []struct {
		name    string
		method  jwt.SigningMethod
		claims  *models.Claims
		wantErr bool
	}{
		{name: "valid", method: jwt.SigningMethodRS256, claims: claimsFor("user-1", "authenticated", time.Hour)},
		{name: "expired", method: jwt.SigningMethodRS256, claims: claimsFor("user-1", "authenticated", -time.Hour), wantErr: true},
		{name: "missing subject", method: jwt.SigningMethodRS256, claims: claimsFor("", "authenticated", time.Hour), wantErr: true},
		{name: "wrong role", method: jwt.SigningMethodRS256, claims: claimsFor("user-1", "anon", time.Hour), wantErr: true},
		{name: "hmac rejected", method: jwt.SigningMethodHS256, claims: claimsFor("user-1", "authenticated", time.Hour), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.VerifyToken(sign(t, key, tt.method, tt.claims))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.GetUserID())
		})
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	verifier, _ := testVerifier(t, "")
	_, err := verifier.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
