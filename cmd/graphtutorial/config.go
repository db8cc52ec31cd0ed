package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/validation"
	"graphtutorial/internal/common/version"
)

const (
	toolName  = "graphtutorial"
	envPrefix = "GRAPH"
)

// Action names accepted by -action.
const (
	ActionMenu     = "menu"
	ActionToken    = "token"
	ActionMe       = "me"
	ActionInbox    = "inbox"
	ActionSendMail = "sendmail"
	ActionEvent    = "event"
)

// Audit log status values.
const (
	StatusSuccess   = "Success"
	StatusError     = "Error"
	StatusCancelled = "Cancelled"
)

var validActions = []string{ActionMenu, ActionToken, ActionMe, ActionInbox, ActionSendMail, ActionEvent}

// Config holds all configuration for graphtutorial.
type Config struct {
	// App registration
	ClientID     string
	TenantID     string
	Scopes       stringSlice
	SettingsFile string

	// Action
	Action string

	// Mail
	Subject string
	Body    string
	To      string // Defaults to the signed-in user

	// Calendar event
	EventSubject   string
	EventBody      string
	EventLocation  string
	EventAttendees stringSlice // Defaults to the signed-in user
	StartTime      string
	EndTime        string
	TimeZone       string

	// Network
	RateLimit float64 // Graph requests per second, 0 disables
	ProxyURL  string

	// Output
	RevealToken bool
	VerboseMode bool
	LogLevel    string
	LogFormat   string

	// Other
	ShowVersion bool
}

// NewConfig creates a new Config with sensible default values.
func NewConfig() *Config {
	return &Config{
		TenantID:      "common",
		Scopes:        stringSlice{"user.read", "mail.read", "mail.send", "calendars.readwrite"},
		Action:        ActionMenu,
		Subject:       "Testing Microsoft Graph",
		Body:          "Hello world!",
		EventSubject:  "Let's go for lunch",
		EventBody:     "Does noon time work for you?",
		EventLocation: "Harry's Bar",
		TimeZone:      "UTC",
		LogLevel:      "INFO",
		LogFormat:     "csv",
	}
}

// parseAndConfigureFlags parses args (without the program name) and applies
// environment variables and the settings file to anything not set on the
// command line. Precedence: flags, then GRAPH* variables, then the settings
// file, then defaults.
func parseAndConfigureFlags(args []string, stderr io.Writer) (*Config, error) {
	config := NewConfig()

	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&config.ClientID, "clientid", "", "Application (client) ID of the app registration (env: GRAPHCLIENTID)")
	fs.StringVar(&config.TenantID, "tenantid", config.TenantID, "Tenant ID, verified domain, or common/organizations/consumers (env: GRAPHTENANTID)")
	fs.Var(&config.Scopes, "scopes", "Comma-separated delegated permission scopes (env: GRAPHSCOPES)")
	fs.StringVar(&config.SettingsFile, "settings", "", "Path to a TOML settings file with clientId, tenantId, graphUserScopes (env: GRAPHSETTINGS)")
	fs.StringVar(&config.Action, "action", config.Action, "Action to perform: "+strings.Join(validActions, ", ")+" (env: GRAPHACTION)")

	fs.StringVar(&config.Subject, "subject", config.Subject, "Subject of the mail sent by sendmail (env: GRAPHSUBJECT)")
	fs.StringVar(&config.Body, "body", config.Body, "Text body of the mail sent by sendmail (env: GRAPHBODY)")
	fs.StringVar(&config.To, "to", "", "Recipient of sendmail, defaults to the signed-in user (env: GRAPHTO)")

	fs.StringVar(&config.EventSubject, "event-subject", config.EventSubject, "Subject of the calendar event (env: GRAPHEVENTSUBJECT)")
	fs.StringVar(&config.EventBody, "event-body", config.EventBody, "HTML body of the calendar event (env: GRAPHEVENTBODY)")
	fs.StringVar(&config.EventLocation, "event-location", config.EventLocation, "Location of the calendar event (env: GRAPHEVENTLOCATION)")
	fs.Var(&config.EventAttendees, "event-attendees", "Comma-separated attendee addresses, defaults to the signed-in user (env: GRAPHEVENTATTENDEES)")
	fs.StringVar(&config.StartTime, "start", "", "Event start (RFC3339 or '2006-01-02T15:04:05'), defaults to tomorrow at noon (env: GRAPHSTART)")
	fs.StringVar(&config.EndTime, "end", "", "Event end, defaults to two hours after start (env: GRAPHEND)")
	fs.StringVar(&config.TimeZone, "timezone", config.TimeZone, "Time zone the event times are expressed in (env: GRAPHTIMEZONE)")

	fs.Float64Var(&config.RateLimit, "ratelimit", 0, "Maximum Graph requests per second, 0 disables (env: GRAPHRATELIMIT)")
	fs.StringVar(&config.ProxyURL, "proxy", "", "HTTP/HTTPS proxy URL (e.g., http://proxy.example.com:8080) (env: GRAPHPROXY)")

	fs.BoolVar(&config.RevealToken, "revealtoken", false, "Print the full access token instead of a masked one (env: GRAPHREVEALTOKEN)")
	fs.BoolVar(&config.VerboseMode, "verbose", false, "Enable verbose output (env: GRAPHVERBOSE)")
	fs.StringVar(&config.LogLevel, "loglevel", config.LogLevel, "Log level: DEBUG, INFO, WARN, ERROR (env: GRAPHLOGLEVEL)")
	fs.StringVar(&config.LogFormat, "logformat", config.LogFormat, "Audit log format: csv, json, none (env: GRAPHLOGFORMAT)")
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version information")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "graphtutorial - Microsoft Graph device code tutorial - Version %s\n\n", version.Get())
		fmt.Fprintf(out, "Signs in with the device code flow and calls Microsoft Graph as that user.\n\n")
		fmt.Fprintf(out, "Actions:\n")
		fmt.Fprintf(out, "  menu      Interactive menu (default)\n")
		fmt.Fprintf(out, "  token     Display the access token\n")
		fmt.Fprintf(out, "  me        Display the signed-in user\n")
		fmt.Fprintf(out, "  inbox     List the newest inbox messages\n")
		fmt.Fprintf(out, "  sendmail  Send a mail, to yourself by default\n")
		fmt.Fprintf(out, "  event     Create a calendar event\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment variables:\n")
		fmt.Fprintf(out, "  All flags can be set via environment variables with the %s prefix\n", envPrefix)
		fmt.Fprintf(out, "  Example: GRAPHCLIENTID, GRAPHTENANTID, GRAPHSCOPES\n")
		fmt.Fprintf(out, "  Command-line flags take precedence over environment variables\n\n")
		fmt.Fprintf(out, "Examples:\n")
		fmt.Fprintf(out, "  graphtutorial -clientid \"...\" -tenantid common\n")
		fmt.Fprintf(out, "  graphtutorial -settings settings.toml -action inbox\n")
		fmt.Fprintf(out, "  graphtutorial -clientid \"...\" -action sendmail -to user@example.com\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	// Track which flags were explicitly set via command line
	providedFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		providedFlags[f.Name] = true
	})

	applyEnvVars(providedFlags, map[string]*string{
		"settings":       &config.SettingsFile,
		"clientid":       &config.ClientID,
		"tenantid":       &config.TenantID,
		"action":         &config.Action,
		"subject":        &config.Subject,
		"body":           &config.Body,
		"to":             &config.To,
		"event-subject":  &config.EventSubject,
		"event-body":     &config.EventBody,
		"event-location": &config.EventLocation,
		"start":          &config.StartTime,
		"end":            &config.EndTime,
		"timezone":       &config.TimeZone,
		"proxy":          &config.ProxyURL,
		"loglevel":       &config.LogLevel,
		"logformat":      &config.LogFormat,
	})
	applyEnvVarsToSlice(providedFlags, "scopes", &config.Scopes)
	applyEnvVarsToSlice(providedFlags, "event-attendees", &config.EventAttendees)
	applyEnvBool(providedFlags, "revealtoken", &config.RevealToken)
	applyEnvBool(providedFlags, "verbose", &config.VerboseMode)

	if !providedFlags["ratelimit"] {
		if envRate := os.Getenv(envName("ratelimit")); envRate != "" {
			if rps, err := strconv.ParseFloat(envRate, 64); err == nil && rps >= 0 {
				config.RateLimit = rps
			}
		}
	}

	if config.SettingsFile != "" {
		if err := validation.ValidateFilePath(config.SettingsFile, "Settings file"); err != nil {
			return nil, err
		}
		settings, err := loadSettingsFile(config.SettingsFile)
		if err != nil {
			return nil, err
		}
		applySettingsFile(config, settings, providedFlags)
	}

	return config, nil
}

// envName maps a flag name to its environment variable, e.g. event-subject to
// GRAPHEVENTSUBJECT.
func envName(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", ""))
}

// isEnvSet reports whether the environment variable for flagName is non-empty.
func isEnvSet(flagName string) bool {
	return os.Getenv(envName(flagName)) != ""
}

// applyEnvVars applies environment variable values to flags that weren't explicitly set via command line
func applyEnvVars(providedFlags map[string]bool, targets map[string]*string) {
	for flagName, target := range targets {
		if providedFlags[flagName] {
			continue
		}
		if envValue := os.Getenv(envName(flagName)); envValue != "" {
			*target = envValue
		}
	}
}

// applyEnvVarsToSlice applies environment variable values to stringSlice flags
func applyEnvVarsToSlice(providedFlags map[string]bool, flagName string, slice *stringSlice) {
	if providedFlags[flagName] {
		return
	}
	if envValue := os.Getenv(envName(flagName)); envValue != "" {
		_ = slice.Set(envValue)
	}
}

func applyEnvBool(providedFlags map[string]bool, flagName string, target *bool) {
	if providedFlags[flagName] {
		return
	}
	if envValue := os.Getenv(envName(flagName)); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			*target = parsed
		}
	}
}

// validateConfiguration validates all required configuration fields
func validateConfiguration(config *Config) error {
	config.Action = strings.ToLower(strings.TrimSpace(config.Action))
	actionValid := false
	for _, a := range validActions {
		if config.Action == a {
			actionValid = true
			break
		}
	}
	if !actionValid {
		return fmt.Errorf("invalid action: %s (valid: %s)", config.Action, strings.Join(validActions, ", "))
	}

	if err := validation.ValidateGUID(config.ClientID, "Client ID"); err != nil {
		return err
	}
	if err := validation.ValidateTenantID(config.TenantID); err != nil {
		return err
	}
	if err := validation.ValidateScopes(config.Scopes); err != nil {
		return err
	}

	if config.To != "" {
		if err := validation.ValidateEmail(config.To); err != nil {
			return fmt.Errorf("invalid -to: %w", err)
		}
	}
	if err := validation.ValidateEmails(config.EventAttendees, "Event attendees"); err != nil {
		return err
	}

	if config.StartTime != "" {
		if _, err := parseFlexibleTime(config.StartTime, time.UTC); err != nil {
			return fmt.Errorf("invalid -start: %w", err)
		}
	}
	if config.EndTime != "" {
		if _, err := parseFlexibleTime(config.EndTime, time.UTC); err != nil {
			return fmt.Errorf("invalid -end: %w", err)
		}
	}

	if config.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %v (must be >= 0)", config.RateLimit)
	}

	if config.ProxyURL != "" {
		if err := validation.ValidateProxyURL(config.ProxyURL); err != nil {
			return err
		}
	}

	config.LogLevel = strings.ToUpper(strings.TrimSpace(config.LogLevel))
	switch config.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log level: %s (valid: DEBUG, INFO, WARN, ERROR)", config.LogLevel)
	}

	format, err := logger.ParseLogFormat(config.LogFormat)
	if err != nil {
		return err
	}
	config.LogFormat = string(format)

	return nil
}

// parseFlexibleTime accepts RFC3339 or the sortable '2006-01-02T15:04:05' form.
// Sortable values carry no offset and are read as wall-clock time in loc.
func parseFlexibleTime(timeStr string, loc *time.Location) (time.Time, error) {
	if timeStr == "" {
		return time.Time{}, fmt.Errorf("time string is empty")
	}
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.Parse(time.RFC3339, timeStr)
	if err == nil {
		return t, nil
	}

	t, err = time.ParseInLocation("2006-01-02T15:04:05", timeStr, loc)
	if err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time format (expected RFC3339 like '2026-01-15T14:00:00Z' or sortable like '2026-01-15T14:00:00')")
}

// eventLocation resolves an IANA -timezone. Windows zone names and empty values
// resolve to UTC; Graph receives those times unconverted.
func eventLocation(zone string) *time.Location {
	if zone == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(zone); err == nil {
		return loc
	}
	return time.UTC
}

// stringSlice implements the flag.Value interface for comma-separated string lists.
type stringSlice []string

// String returns the comma-separated string representation of the slice.
func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

// Set parses a comma-separated string into a slice of trimmed strings.
func (s *stringSlice) Set(value string) error {
	if value == "" {
		*s = nil
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	*s = result
	return nil
}
