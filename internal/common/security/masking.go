// Package security masks identifiers and credentials before they reach logs or
// the terminal.
package security

import "strings"

const stars = "****"

// maskMiddle keeps the first and last two characters. Values of four characters
// or fewer are hidden entirely.
func maskMiddle(s string) string {
	if len(s) <= 4 {
		return stars
	}
	return s[:2] + stars + s[len(s)-2:]
}

// keepPrefix keeps the first n characters when s is longer than n.
func keepPrefix(s string, n int) string {
	if len(s) <= n {
		return stars
	}
	return s[:n] + stars
}

// MaskAccessToken shortens a bearer token to its first 8 and last 4 characters.
// Tokens of 16 characters or fewer are split in half around the ellipsis.
func MaskAccessToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 16:
		half := len(token) / 2
		return token[:half] + "..." + token[half:]
	default:
		return token[:8] + "..." + token[len(token)-4:]
	}
}

// MaskGUID keeps the first GUID group of an application or directory ID.
func MaskGUID(guid string) string {
	if len(guid) <= 8 {
		return guid + stars
	}
	return guid[:8] + stars
}

// MaskTenant masks a tenant ID or verified domain. The multi-tenant authorities
// common, organizations and consumers are public and returned unchanged.
func MaskTenant(tenant string) string {
	switch strings.ToLower(tenant) {
	case "common", "organizations", "consumers":
		return tenant
	}
	if strings.Contains(tenant, ".") {
		return maskMiddle(tenant)
	}
	return MaskGUID(tenant)
}

// MaskEmail keeps two characters of the mailbox and of the domain, so
// "adele@contoso.com" becomes "ad****@co****".
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return maskMiddle(email)
	}
	return keepPrefix(local, 2) + "@" + keepPrefix(domain, 2)
}
