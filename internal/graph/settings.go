package graph

import (
	"fmt"
	"strings"
)

// Settings identifies the registered application and the permissions it asks for.
type Settings struct {
	ClientID        string   // Application (client) ID of the app registration
	TenantID        string   // Directory ID, verified domain, or common/organizations/consumers
	GraphUserScopes []string // Delegated permission scopes, e.g. user.read
}

// Validate checks the fields required to build a credential. Scopes are not
// required here; UserToken rejects an empty scope list on its own.
func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: settings cannot be nil", ErrConfiguration)
	}
	if strings.TrimSpace(s.ClientID) == "" {
		return fmt.Errorf("%w: clientId cannot be empty", ErrConfiguration)
	}
	if strings.TrimSpace(s.TenantID) == "" {
		return fmt.Errorf("%w: tenantId cannot be empty", ErrConfiguration)
	}
	return nil
}

func (s *Settings) clone() Settings {
	return Settings{
		ClientID:        strings.TrimSpace(s.ClientID),
		TenantID:        strings.TrimSpace(s.TenantID),
		GraphUserScopes: append([]string(nil), s.GraphUserScopes...),
	}
}
