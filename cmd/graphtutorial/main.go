// Package main is an interactive command-line tutorial for Microsoft Graph.
// It signs the user in with the device code flow and then, from a menu or a
// single -action, displays the access token, lists the inbox, sends a mail
// and creates a calendar event on their behalf.
//
// Every operation is logged to an action-specific CSV or JSONL file in the
// system temp directory.
//
// Example usage:
//
//	graphtutorial -clientid "..." -tenantid common
//	graphtutorial -settings settings.toml -action inbox
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/ratelimit"
	"graphtutorial/internal/common/security"
	"graphtutorial/internal/common/version"
	"graphtutorial/internal/graph"
)

func main() {
	ctx, cancel := setupSignalHandling()
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupSignalHandling configures graceful shutdown on interrupt signals
// Returns a cancellable context for use throughout the application
func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	// Handle interrupt signals (Ctrl+C, SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n\nReceived interrupt signal. Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// initializeServices opens the audit log and applies the proxy setting.
// An audit log that cannot be opened is reported and replaced by a no-op
// logger so the tutorial still runs.
func initializeServices(config *Config, out io.Writer, slogger *slog.Logger) logger.Logger {
	format, _ := logger.ParseLogFormat(config.LogFormat)
	audit, err := logger.NewLogger(format, toolName, config.Action)
	if err != nil {
		logger.LogWarn(slogger, "Could not initialize audit logging", "error", err)
		audit = logger.NopLogger{}
	}

	// JSON rows are keyed by the header columns, so that logger needs them on every run.
	if shouldWrite, err := audit.ShouldWriteHeader(); err == nil && (shouldWrite || format == logger.FormatJSON) {
		if err := audit.WriteHeader(auditColumns); err != nil {
			logger.LogWarn(slogger, "Could not write audit log header", "error", err)
		}
	}
	if path := audit.Path(); path != "" {
		logger.LogInfo(slogger, "Audit logging enabled", "path", path, "format", string(format))
	}

	// Go's http package automatically uses HTTP_PROXY/HTTPS_PROXY environment variables
	if config.ProxyURL != "" {
		os.Setenv("HTTP_PROXY", config.ProxyURL)
		os.Setenv("HTTPS_PROXY", config.ProxyURL)
		fmt.Fprintf(out, "Using proxy: %s\n", config.ProxyURL)
	}

	return audit
}

// run parses configuration, initializes the Graph session and executes the
// requested action.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	config, err := parseAndConfigureFlags(args, stderr)
	if err != nil {
		return err
	}

	if config.ShowVersion {
		fmt.Fprintf(stdout, "graphtutorial - Microsoft Graph device code tutorial - Version %s\n", version.Get())
		return nil
	}

	if err := validateConfiguration(config); err != nil {
		return err
	}

	slogger := logger.SetupLoggerWithWriter(stderr, config.VerboseMode, config.LogLevel)
	logger.LogInfo(slogger, "Application starting", "version", version.Get(), "action", config.Action)
	logger.LogDebug(slogger, "Configuration",
		"clientID", security.MaskGUID(config.ClientID),
		"tenantID", security.MaskTenant(config.TenantID),
		"scopes", config.Scopes.String(),
		"rateLimit", config.RateLimit)

	audit := initializeServices(config, stdout, slogger)
	defer audit.Close()

	limiter := ratelimit.New(config.RateLimit)
	if limiter.Enabled() {
		logger.LogInfo(slogger, "Rate limiting enabled", "rps", limiter.RPS(), "limit", limiter.String())
	}

	mgr := graph.NewManager(
		graph.WithLogger(slogger),
		graph.WithRateLimiter(limiter),
	)
	settings := &graph.Settings{
		ClientID:        config.ClientID,
		TenantID:        config.TenantID,
		GraphUserScopes: config.Scopes,
	}
	if err := mgr.Initialize(settings, graph.WriterPrompter{W: stdout}); err != nil {
		return err
	}

	return newApp(mgr, config, stdout, audit, slogger).executeAction(ctx, stdin)
}
