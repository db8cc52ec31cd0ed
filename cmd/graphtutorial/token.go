package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"graphtutorial/internal/common/security"
)

// TokenClaims represents the delegated-token claims shown to the user.
type TokenClaims struct {
	Name              string `json:"name"`               // Display name of the signed-in user
	UPN               string `json:"upn"`                // Work or school accounts
	PreferredUsername string `json:"preferred_username"` // v2 tokens and personal accounts
	Scope             string `json:"scp"`                // Space-separated delegated scopes
	AppDisplayName    string `json:"app_displayname"`
	jwt.RegisteredClaims
}

// parseTokenClaims decodes a JWT access token without verifying it. The token
// came straight from the identity provider.
func parseTokenClaims(tokenString string) (*TokenClaims, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, &TokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from token")
	}
	return claims, nil
}

// printTokenInfo writes the token, masked unless reveal is set, followed by
// whatever claims could be decoded from it.
func printTokenInfo(w io.Writer, token string, reveal bool) {
	shown := security.MaskAccessToken(token)
	if reveal {
		shown = token
	}
	fmt.Fprintf(w, "User token: %s\n", shown)
	fmt.Fprintf(w, "Token length: %d characters\n", len(token))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "JWT Claims:")
	claims, err := parseTokenClaims(token)
	if err != nil {
		// Personal Microsoft account tokens are opaque.
		fmt.Fprintf(w, "  (Could not parse JWT claims: %v)\n", err)
		return
	}

	fmt.Fprintf(w, "  Name: %s\n", ifEmpty(claims.Name, "(not available)"))
	fmt.Fprintf(w, "  Username: %s\n", ifEmpty(ifEmpty(claims.UPN, claims.PreferredUsername), "(not available)"))
	fmt.Fprintf(w, "  Application: %s\n", ifEmpty(claims.AppDisplayName, "(not available)"))

	scopes := "(none)"
	if fields := strings.Fields(claims.Scope); len(fields) > 0 {
		scopes = strings.Join(fields, ", ")
	}
	fmt.Fprintf(w, "  Scopes: %s\n", scopes)

	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		fmt.Fprintf(w, "  Expires at: %s\n", expires.Local().Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(w, "  Valid for: %s\n", time.Until(expires).Round(time.Second))
	}
}

// ifEmpty returns defaultVal if s is empty, otherwise returns s
func ifEmpty(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	return s
}
