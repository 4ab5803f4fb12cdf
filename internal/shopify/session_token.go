package shopify

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims of an App Bridge session token
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// VerifySessionToken validates an App Bridge session token and returns the shop it was issued for
func VerifySessionToken(tokenString, clientID, clientSecret string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(clientSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(clientID),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}

	shop := NormalizeShopDomain(claims.Dest)
	if !IsValidShopDomain(shop) {
		return "", fmt.Errorf("session token dest %q is not a shop", claims.Dest)
	}
	return shop, nil
}
