package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/validation"
)

// graphDateTimeLayout is the dateTime format of a Graph dateTimeTimeZone value.
const graphDateTimeLayout = "2006-01-02T15:04:05"

// Attendee is an event invitee.
type Attendee struct {
	Name     string
	Address  string
	Optional bool
}

// EventRequest describes a calendar event to create.
type EventRequest struct {
	Subject  string
	Body     string
	BodyType string // "text" or "html"; defaults to "html"
	Start    time.Time
	End      time.Time
	// TimeZone is sent with Start and End. For an IANA name the times are
	// converted into that zone first; any other name, such as a Windows zone,
	// is sent with the wall-clock times unchanged. Defaults to UTC.
	TimeZone              string
	Location              string
	Attendees             []Attendee
	AllowNewTimeProposals bool
	// TransactionID makes the create idempotent on the service side. A random
	// UUID is used when empty.
	TransactionID string
}

func (r *EventRequest) validate() error {
	if r == nil {
		return fmt.Errorf("%w: event cannot be nil", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Subject) == "" {
		return fmt.Errorf("%w: event subject cannot be empty", ErrInvalidArgument)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: event start and end are required", ErrInvalidArgument)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: event end must be after start", ErrInvalidArgument)
	}
	switch strings.ToLower(r.BodyType) {
	case "", "html", "text":
	default:
		return fmt.Errorf("%w: event body type must be text or html, got %q", ErrInvalidArgument, r.BodyType)
	}
	for i, a := range r.Attendees {
		if err := validation.ValidateEmail(strings.TrimSpace(a.Address)); err != nil {
			return fmt.Errorf("%w: attendee %d: %v", ErrInvalidArgument, i+1, err)
		}
	}
	return nil
}

// toModel builds the Graph event. validate must have succeeded.
func (r *EventRequest) toModel() models.Eventable {
	event := models.NewEvent()

	subject := r.Subject
	event.SetSubject(&subject)

	body := models.NewItemBody()
	content := r.Body
	body.SetContent(&content)
	bodyType := models.HTML_BODYTYPE
	if strings.EqualFold(r.BodyType, "text") {
		bodyType = models.TEXT_BODYTYPE
	}
	body.SetContentType(&bodyType)
	event.SetBody(body)

	event.SetStart(newDateTimeTimeZone(r.Start, r.TimeZone))
	event.SetEnd(newDateTimeTimeZone(r.End, r.TimeZone))

	if r.Location != "" {
		location := models.NewLocation()
		displayName := r.Location
		location.SetDisplayName(&displayName)
		event.SetLocation(location)
	}

	if len(r.Attendees) > 0 {
		attendees := make([]models.Attendeeable, 0, len(r.Attendees))
		for _, a := range r.Attendees {
			attendee := models.NewAttendee()
			emailAddress := models.NewEmailAddress()
			address := strings.TrimSpace(a.Address)
			emailAddress.SetAddress(&address)
			if a.Name != "" {
				name := a.Name
				emailAddress.SetName(&name)
			}
			attendee.SetEmailAddress(emailAddress)
			attendeeType := models.REQUIRED_ATTENDEETYPE
			if a.Optional {
				attendeeType = models.OPTIONAL_ATTENDEETYPE
			}
			attendee.SetTypeEscaped(&attendeeType)
			attendees = append(attendees, attendee)
		}
		event.SetAttendees(attendees)
	}

	allow := r.AllowNewTimeProposals
	event.SetAllowNewTimeProposals(&allow)

	transactionID := r.TransactionID
	if transactionID == "" {
		transactionID = uuid.NewString()
	}
	event.SetTransactionId(&transactionID)

	return event
}

func newDateTimeTimeZone(t time.Time, zone string) models.DateTimeTimeZoneable {
	if zone == "" {
		zone = "UTC"
		t = t.UTC()
	} else if loc, err := time.LoadLocation(zone); err == nil {
		t = t.In(loc)
	}
	value := t.Format(graphDateTimeLayout)

	dtz := models.NewDateTimeTimeZone()
	dtz.SetDateTime(&value)
	dtz.SetTimeZone(&zone)
	return dtz
}

// CreateEvent creates an event in the signed-in user's default calendar.
func (s *Session) CreateEvent(ctx context.Context, req *EventRequest) error {
	if s == nil {
		return ErrUninitializedSession
	}
	if err := req.validate(); err != nil {
		return err
	}
	if err := s.wait(ctx, "create event"); err != nil {
		return err
	}

	logger.LogDebug(s.logger, "Calling Graph API", "method", "POST", "path", "/me/events",
		"subject", req.Subject, "attendees", len(req.Attendees))
	created, err := s.client.Me().Events().Post(ctx, req.toModel(), nil)
	if err != nil {
		logger.LogError(s.logger, "Failed to create event", "error", err)
		return newRemoteCallError("create event", err)
	}

	if created != nil && created.GetId() != nil {
		logger.LogInfo(s.logger, "Event created", "id", *created.GetId())
	}
	return nil
}
