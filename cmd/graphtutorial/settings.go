package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// settingsFile is the on-disk form of the app registration settings.
//
//	clientId = "00000000-0000-0000-0000-000000000000"
//	tenantId = "common"
//	graphUserScopes = ["user.read", "mail.read"]
type settingsFile struct {
	ClientID        string   `toml:"clientId"`
	TenantID        string   `toml:"tenantId"`
	GraphUserScopes []string `toml:"graphUserScopes"`
}

func loadSettingsFile(path string) (*settingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings settingsFile
	if err := toml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return &settings, nil
}

// applySettingsFile fills fields that neither a flag nor an environment
// variable set.
func applySettingsFile(config *Config, settings *settingsFile, providedFlags map[string]bool) {
	if settings.ClientID != "" && !providedFlags["clientid"] && !isEnvSet("clientid") {
		config.ClientID = settings.ClientID
	}
	if settings.TenantID != "" && !providedFlags["tenantid"] && !isEnvSet("tenantid") {
		config.TenantID = settings.TenantID
	}
	if len(settings.GraphUserScopes) > 0 && !providedFlags["scopes"] && !isEnvSet("scopes") {
		config.Scopes = append(stringSlice(nil), settings.GraphUserScopes...)
	}
}
