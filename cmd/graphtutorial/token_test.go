package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, claims TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestParseTokenClaims(t *testing.T) {
	token := signedTestToken(t, TokenClaims{
		Name:  "Adele Vance",
		UPN:   "adelev@contoso.com",
		Scope: "Mail.Read User.Read",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := parseTokenClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "Adele Vance", claims.Name)
	assert.Equal(t, "adelev@contoso.com", claims.UPN)
	assert.Equal(t, "Mail.Read User.Read", claims.Scope)

	_, err = parseTokenClaims("EwBwA8l6BAAUopaque")
	assert.Error(t, err)
}

func TestPrintTokenInfo(t *testing.T) {
	token := signedTestToken(t, TokenClaims{
		Name:              "Megan Bowen",
		PreferredUsername: "meganb@contoso.com",
		Scope:             "User.Read Mail.Send",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	t.Run("masked", func(t *testing.T) {
		var buf bytes.Buffer
		printTokenInfo(&buf, token, false)
		out := buf.String()

		assert.NotContains(t, out, token)
		assert.Contains(t, out, "Name: Megan Bowen")
		assert.Contains(t, out, "Username: meganb@contoso.com")
		assert.Contains(t, out, "Scopes: User.Read, Mail.Send")
		assert.Contains(t, out, "Expires at:")
	})

	t.Run("revealed", func(t *testing.T) {
		var buf bytes.Buffer
		printTokenInfo(&buf, token, true)
		assert.Contains(t, buf.String(), "User token: "+token)
	})

	t.Run("opaque token", func(t *testing.T) {
		var buf bytes.Buffer
		printTokenInfo(&buf, "EwBwA8l6BAAUopaque", false)
		assert.Contains(t, buf.String(), "Could not parse JWT claims")
	})
}
