package shopify

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signSession(t *testing.T, method jwt.SigningMethod, key interface{}, claims SessionClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func sessionClaims(aud, dest string, exp time.Time) SessionClaims {
	return SessionClaims{
		Dest: dest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    dest + "/admin",
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

func TestVerifySessionToken(t *testing.T) {
	valid := sessionClaims("client-id", "https://demo.myshopify.com", time.Now().Add(time.Minute))

	t.Run("valid", func(t *testing.T) {
		tok := signSession(t, jwt.SigningMethodHS256, []byte("hush"), valid)
		shop, err := VerifySessionToken(tok, "client-id", "hush")
		require.NoError(t, err)
		assert.Equal(t, "demo.myshopify.com", shop)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok := signSession(t, jwt.SigningMethodHS256, []byte("other"), valid)
		_, err := VerifySessionToken(tok, "client-id", "hush")
		assert.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tok := signSession(t, jwt.SigningMethodHS256, []byte("hush"),
			sessionClaims("someone-else", "https://demo.myshopify.com", time.Now().Add(time.Minute)))
		_, err := VerifySessionToken(tok, "client-id", "hush")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		tok := signSession(t, jwt.SigningMethodHS256, []byte("hush"),
			sessionClaims("client-id", "https://demo.myshopify.com", time.Now().Add(-time.Hour)))
		_, err := VerifySessionToken(tok, "client-id", "hush")
		assert.Error(t, err)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		tok := signSession(t, jwt.SigningMethodHS512, []byte("hush"), valid)
		_, err := VerifySessionToken(tok, "client-id", "hush")
		assert.Error(t, err)
	})

	t.Run("dest not a shop", func(t *testing.T) {
		tok := signSession(t, jwt.SigningMethodHS256, []byte("hush"),
			sessionClaims("client-id", "https://evil.example.com", time.Now().Add(time.Minute)))
		_, err := VerifySessionToken(tok, "client-id", "hush")
		assert.Error(t, err)
	})
}
