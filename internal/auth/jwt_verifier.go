package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"loom/internal/domain"
	"loom/internal/domain/models"
)

// allowedAlgorithms prevents algorithm confusion attacks.
var allowedAlgorithms = []string{"RS256", "ES256"}

// KeyfuncJWTVerifier implements JWTVerifier over a jwt.Keyfunc, normally
// backed by a JWKS endpoint.
type KeyfuncJWTVerifier struct {
	keyfunc jwt.Keyfunc
	// requiredRole rejects tokens whose role claim differs; empty accepts any.
	requiredRole string
	logger       *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from a JWKS
// endpoint. keyfunc v3 caches keys and refreshes them in the background.
func NewJWTVerifier(ctx context.Context, jwksURL, requiredRole string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return NewKeyfuncVerifier(jwks.Keyfunc, requiredRole, logger), nil
}

// NewKeyfuncVerifier creates a verifier over an arbitrary key lookup.
func NewKeyfuncVerifier(kf jwt.Keyfunc, requiredRole string, logger *slog.Logger) *KeyfuncJWTVerifier {
	return &KeyfuncJWTVerifier{
		keyfunc:      kf,
		requiredRole: requiredRole,
		logger:       logger,
	}
}

// VerifyToken validates a JWT token and extracts its claims.
func (v *KeyfuncJWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.keyfunc,
		jwt.WithValidMethods(allowedAlgorithms))
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		v.logger.Debug("token is invalid after parsing")
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	if v.requiredRole != "" && claims.Role != v.requiredRole {
		v.logger.Warn("token has invalid role",
			"role", claims.Role,
			"expected", v.requiredRole,
			"user_id", claims.Subject,
		)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op: keyfunc v3 stops refreshing when its context ends.
func (v *KeyfuncJWTVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
