// Package auth issues and verifies the bearer tokens the API accepts. A token
// names the user and the organization the user is acting in.
package auth

import (
	"errors"
	"time"

	"orderlyflow/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

type Claims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"org_id"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Issuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, expiry: expiry}
}

func (i *Issuer) GenerateToken(userID, organizationID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         userID,
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.OrganizationID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
