package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail parsing or verification
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity the upstream login service signs into operator tokens
type Claims struct {
	UserID   uint   `json:"id"`
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
	Role     string `json:"role"`
	ChaineID string `json:"chaine_id"`
	jwt.RegisteredClaims
}

// FullName returns "nom prenom" as recorded in operateur_nom
func (c *Claims) FullName() string {
	return strings.TrimSpace(c.Nom + " " + c.Prenom)
}

// ValidateToken verifies an HS256 token signed with secret and returns its claims
func ValidateToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken signs claims with secret. The lots service only verifies tokens;
// this is used by tests and local tooling.
func GenerateToken(claims Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
