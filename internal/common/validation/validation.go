// Package validation checks user supplied configuration values before any
// request leaves the process.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// ValidateEmail performs basic email format validation.
// Checks for the presence of @ and validates the local and domain parts.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email format: %s (missing @)", email)
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid email format: %s", email)
	}
	if strings.IndexFunc(email, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("invalid email format: %q contains whitespace or control characters", email)
	}
	return nil
}

// ValidateEmails validates a slice of email addresses.
// Returns an error if any email in the slice is invalid.
func ValidateEmails(emails []string, fieldName string) error {
	for _, email := range emails {
		if err := ValidateEmail(email); err != nil {
			return fmt.Errorf("%s contains invalid email: %w", fieldName, err)
		}
	}
	return nil
}

// ValidateGUID validates that a string matches standard GUID format (8-4-4-4-12).
// Example: 12345678-1234-1234-1234-123456789012
func ValidateGUID(guid, fieldName string) error {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if len(guid) != 36 {
		return fmt.Errorf("%s should be a GUID (36 characters, format: 12345678-1234-1234-1234-123456789012)", fieldName)
	}
	if guid[8] != '-' || guid[13] != '-' || guid[18] != '-' || guid[23] != '-' {
		return fmt.Errorf("%s has invalid GUID format (dashes at wrong positions)", fieldName)
	}
	return nil
}

// WellKnownTenants are the multi-tenant authorities accepted by Entra ID in place
// of a directory GUID.
var WellKnownTenants = []string{"common", "organizations", "consumers"}

// ValidateTenantID accepts a directory GUID, a verified domain name, or one of
// the well-known multi-tenant authorities.
func ValidateTenantID(tenant string) error {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	for _, known := range WellKnownTenants {
		if strings.EqualFold(tenant, known) {
			return nil
		}
	}
	if strings.Contains(tenant, ".") {
		if err := ValidateHostname(tenant); err != nil {
			return fmt.Errorf("tenant ID is not a valid domain: %w", err)
		}
		return nil
	}
	if err := ValidateGUID(tenant, "tenant ID"); err != nil {
		return fmt.Errorf("%w (or use a verified domain or one of %s)", err, strings.Join(WellKnownTenants, ", "))
	}
	return nil
}

// ValidateScopes checks that at least one permission scope is given and that
// none of them is blank or contains whitespace.
func ValidateScopes(scopes []string) error {
	if len(scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}
	for i, scope := range scopes {
		if strings.TrimSpace(scope) == "" {
			return fmt.Errorf("scope %d is empty", i+1)
		}
		if strings.IndexFunc(scope, unicode.IsSpace) >= 0 {
			return fmt.Errorf("scope %q contains whitespace", scope)
		}
	}
	return nil
}

// ValidateFilePath checks an optional settings file path. Relative paths may not
// climb out of the working directory, and the target must be an existing regular file.
func ValidateFilePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if strings.Contains(path, `..\`) || (!filepath.IsAbs(path) && strings.Contains(filepath.ToSlash(path), "..")) {
		return fmt.Errorf("%s: path contains directory traversal (..) which is not allowed", fieldName)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%s: invalid path: %w", fieldName, err)
	}

	info, err := os.Stat(absPath)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s: file not found: %s", fieldName, path)
	case os.IsPermission(err):
		return fmt.Errorf("%s: permission denied: %s", fieldName, path)
	case err != nil:
		return fmt.Errorf("%s: cannot access file: %w", fieldName, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s: not a regular file (is it a directory?): %s", fieldName, path)
	}
	return nil
}

func isHostnameRune(r rune) bool {
	return r == '.' || r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ValidateHostname accepts an IP literal or a DNS name of letters, digits, dots
// and hyphens.
func ValidateHostname(hostname string) error {
	hostname = strings.TrimSpace(hostname)
	switch {
	case hostname == "":
		return fmt.Errorf("hostname cannot be empty")
	case net.ParseIP(hostname) != nil:
		return nil
	case len(hostname) > 253:
		return fmt.Errorf("hostname too long (max 253 characters)")
	}

	if i := strings.IndexFunc(hostname, func(r rune) bool { return !isHostnameRune(r) }); i >= 0 {
		return fmt.Errorf("hostname contains invalid character: %c", []rune(hostname[i:])[0])
	}
	if strings.Trim(hostname, ".-") != hostname {
		return fmt.Errorf("hostname cannot start or end with hyphen or dot")
	}
	return nil
}

// ValidateProxyURL validates an HTTP, HTTPS or SOCKS5 proxy URL.
// An empty string means no proxy and is accepted.
func ValidateProxyURL(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL format: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("unsupported proxy scheme %q (use http, https or socks5)", u.Scheme)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("proxy URL must include hostname")
	}

	if u.User != nil && u.User.Username() == "" {
		return fmt.Errorf("proxy URL has empty username")
	}

	if err := ValidateHostname(u.Hostname()); err != nil {
		return fmt.Errorf("invalid proxy hostname: %w", err)
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid proxy port: %s", portStr)
		}
	}

	return nil
}
