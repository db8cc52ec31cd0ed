package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/security"
	"graphtutorial/internal/graph"
)

// graphAPI is the part of graph.Manager the handlers use.
type graphAPI interface {
	UserToken(ctx context.Context) (string, error)
	CurrentUser(ctx context.Context) (*graph.User, error)
	ListInbox(ctx context.Context) (*graph.InboxPage, error)
	SendMail(ctx context.Context, subject, body, recipient string) error
	CreateEvent(ctx context.Context, req *graph.EventRequest) error
}

var auditColumns = []string{"Action", "Status", "Details"}

type app struct {
	api    graphAPI
	config *Config
	out    io.Writer
	audit  logger.Logger
	slog   *slog.Logger
	now    func() time.Time
}

func newApp(api graphAPI, config *Config, out io.Writer, audit logger.Logger, slogger *slog.Logger) *app {
	if audit == nil {
		audit = logger.NopLogger{}
	}
	return &app{
		api:    api,
		config: config,
		out:    out,
		audit:  audit,
		slog:   slogger,
		now:    time.Now,
	}
}

// executeAction dispatches to the handler for config.Action. The menu action
// greets the user first and then reads choices from in until exit or EOF.
func (a *app) executeAction(ctx context.Context, in io.Reader) error {
	switch a.config.Action {
	case ActionMenu:
		fmt.Fprintln(a.out, "Go Graph Tutorial")
		fmt.Fprintln(a.out)
		if err := a.greetUser(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(a.out, "Error: %v\n\n", err)
		}
		return a.runMenu(ctx, in)
	case ActionToken:
		return a.displayAccessToken(ctx)
	case ActionMe:
		return a.greetUser(ctx)
	case ActionInbox:
		return a.listInbox(ctx)
	case ActionSendMail:
		return a.sendMail(ctx)
	case ActionEvent:
		return a.makeGraphCall(ctx)
	default:
		return fmt.Errorf("unknown action: %s", a.config.Action)
	}
}

type menuOption struct {
	label string
	run   func(*app, context.Context) error
}

var menuOptions = []menuOption{
	{label: "Display access token", run: (*app).displayAccessToken},
	{label: "List my inbox", run: (*app).listInbox},
	{label: "Send mail", run: (*app).sendMail},
	{label: "Make a Graph call", run: (*app).makeGraphCall},
}

// runMenu loops until the user picks 0, types exit, closes input, or ctx is
// cancelled. Failures are printed and the loop continues.
func (a *app) runMenu(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, in)

	for {
		fmt.Fprintln(a.out, "Please choose one of the following options:")
		fmt.Fprintln(a.out, "0. Exit")
		for i, opt := range menuOptions {
			fmt.Fprintf(a.out, "%d. %s\n", i+1, opt.label)
		}

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(a.out, "Goodbye...")
			return nil
		}

		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "exit") {
			line = "0"
		}
		choice, err := strconv.Atoi(line)
		switch {
		case err != nil || choice < 0 || choice > len(menuOptions):
			fmt.Fprintln(a.out, "Invalid choice! Please try again.")
		case choice == 0:
			fmt.Fprintln(a.out, "Goodbye...")
			return nil
		default:
			if err := menuOptions[choice-1].run(a, ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				fmt.Fprintf(a.out, "Error: %v\n", err)
			}
		}
		fmt.Fprintln(a.out)
	}
}

// readLines feeds lines from r into a channel until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (a *app) greetUser(ctx context.Context) error {
	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		a.record(ActionMe, StatusError, err.Error())
		return fmt.Errorf("error getting user: %w", err)
	}

	fmt.Fprintf(a.out, "Hello, %s!\n", ifEmpty(user.DisplayName, "there"))
	fmt.Fprintf(a.out, "Email: %s\n", ifEmpty(user.Email(), "(not available)"))
	fmt.Fprintln(a.out)

	a.record(ActionMe, StatusSuccess, security.MaskEmail(user.Email()))
	return nil
}

func (a *app) displayAccessToken(ctx context.Context) error {
	token, err := a.api.UserToken(ctx)
	if err != nil {
		a.record(ActionToken, StatusError, err.Error())
		return fmt.Errorf("error getting user token: %w", err)
	}

	printTokenInfo(a.out, token, a.config.RevealToken)
	a.record(ActionToken, StatusSuccess, security.MaskAccessToken(token))
	return nil
}

func (a *app) listInbox(ctx context.Context) error {
	page, err := a.api.ListInbox(ctx)
	if err != nil {
		a.record(ActionInbox, StatusError, err.Error())
		return fmt.Errorf("error getting user's inbox: %w", err)
	}

	if len(page.Messages) == 0 {
		fmt.Fprintln(a.out, "No messages found.")
	}
	for _, msg := range page.Messages {
		status := "Unread"
		if msg.IsRead {
			status = "Read"
		}
		fmt.Fprintf(a.out, "Message: %s\n", ifEmpty(msg.Subject, "No Subject"))
		fmt.Fprintf(a.out, "  From: %s\n", ifEmpty(msg.FromName, "UNKNOWN"))
		fmt.Fprintf(a.out, "  Status: %s\n", status)
		if !msg.ReceivedDateTime.IsZero() {
			fmt.Fprintf(a.out, "  Received: %s\n", msg.ReceivedDateTime.Local().Format("2006-01-02 15:04:05 MST"))
		}
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "More messages available? %t\n", page.MoreAvailable)

	a.record(ActionInbox, StatusSuccess, fmt.Sprintf("Retrieved %d message(s), more available: %t", len(page.Messages), page.MoreAvailable))
	return nil
}

// sendMail sends the configured message to -to, or to the signed-in user.
func (a *app) sendMail(ctx context.Context) error {
	recipient := a.config.To
	if recipient == "" {
		email, err := a.currentUserEmail(ctx)
		if err != nil {
			a.record(ActionSendMail, StatusError, err.Error())
			return fmt.Errorf("error getting user: %w", err)
		}
		if email == "" {
			fmt.Fprintln(a.out, "Couldn't get your email address, canceling...")
			a.record(ActionSendMail, StatusCancelled, "no email address for signed-in user")
			return nil
		}
		recipient = email
	}

	if err := a.api.SendMail(ctx, a.config.Subject, a.config.Body, recipient); err != nil {
		a.record(ActionSendMail, StatusError, err.Error())
		return fmt.Errorf("error sending mail: %w", err)
	}

	fmt.Fprintln(a.out, "Mail sent.")
	a.record(ActionSendMail, StatusSuccess, fmt.Sprintf("To: %s, Subject: %s", security.MaskEmail(recipient), a.config.Subject))
	return nil
}

// makeGraphCall creates the configured calendar event.
func (a *app) makeGraphCall(ctx context.Context) error {
	attendees := []string(a.config.EventAttendees)
	if len(attendees) == 0 {
		email, err := a.currentUserEmail(ctx)
		if err != nil {
			a.record(ActionEvent, StatusError, err.Error())
			return fmt.Errorf("error getting user: %w", err)
		}
		if email != "" {
			attendees = []string{email}
		}
	}

	req, err := buildEventRequest(a.config, attendees, a.now())
	if err != nil {
		a.record(ActionEvent, StatusError, err.Error())
		return err
	}

	logger.LogDebug(a.slog, "Creating event", "subject", req.Subject,
		"start", req.Start.Format(time.RFC3339), "end", req.End.Format(time.RFC3339), "attendees", len(req.Attendees))
	if err := a.api.CreateEvent(ctx, req); err != nil {
		a.record(ActionEvent, StatusError, err.Error())
		return fmt.Errorf("error creating event: %w", err)
	}

	fmt.Fprintf(a.out, "Event created: %s (%s - %s %s)\n", req.Subject,
		req.Start.Format("2006-01-02 15:04"), req.End.Format("2006-01-02 15:04"), req.TimeZone)
	a.record(ActionEvent, StatusSuccess, fmt.Sprintf("Subject: %s, Attendees: %d", req.Subject, len(req.Attendees)))
	return nil
}

func (a *app) currentUserEmail(ctx context.Context) (string, error) {
	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.Email(), nil
}

// buildEventRequest turns the event flags into a request. Without -start the
// event is tomorrow at noon in the configured time zone; without -end it lasts
// two hours.
func buildEventRequest(config *Config, attendees []string, now time.Time) (*graph.EventRequest, error) {
	loc := eventLocation(config.TimeZone)

	var start time.Time
	if config.StartTime == "" {
		local := now.In(loc)
		start = time.Date(local.Year(), local.Month(), local.Day()+1, 12, 0, 0, 0, loc)
	} else {
		t, err := parseFlexibleTime(config.StartTime, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		start = t
	}

	end := start.Add(2 * time.Hour)
	if config.EndTime != "" {
		t, err := parseFlexibleTime(config.EndTime, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		end = t
	}

	req := &graph.EventRequest{
		Subject:               config.EventSubject,
		Body:                  config.EventBody,
		BodyType:              "html",
		Start:                 start,
		End:                   end,
		TimeZone:              config.TimeZone,
		Location:              config.EventLocation,
		AllowNewTimeProposals: true,
	}
	for _, address := range attendees {
		req.Attendees = append(req.Attendees, graph.Attendee{Address: address})
	}
	return req, nil
}

// record writes one audit row. Audit failures are logged, never returned.
func (a *app) record(action, status, details string) {
	if err := a.audit.WriteRow([]string{action, status, details}); err != nil {
		logger.LogWarn(a.slog, "Failed to write audit log", "error", err)
	}
}
