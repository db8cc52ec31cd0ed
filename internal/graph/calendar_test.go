package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventPayload struct {
	Subject string `json:"subject"`
	Body    struct {
		Content     string `json:"content"`
		ContentType string `json:"contentType"`
	} `json:"body"`
	Start struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Attendees []struct {
		EmailAddress struct {
			Address string `json:"address"`
			Name    string `json:"name"`
		} `json:"emailAddress"`
		Type string `json:"type"`
	} `json:"attendees"`
	AllowNewTimeProposals bool   `json:"allowNewTimeProposals"`
	TransactionID         string `json:"transactionId"`
}

func lunchEvent() *EventRequest {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &EventRequest{
		Subject:  "Let's go for lunch",
		Body:     "Does noon work for you?",
		BodyType: "html",
		Start:    start,
		End:      start.Add(2 * time.Hour),
		TimeZone: "UTC",
		Location: "Harry's Bar",
		Attendees: []Attendee{
			{Name: "Adele Vance", Address: "adelev@contoso.com"},
			{Address: "alexw@contoso.com", Optional: true},
		},
		AllowNewTimeProposals: true,
		TransactionID:         "7E163156-7762-4BEB-A1C6-729EA81755A7",
	}
}

func TestCreateEvent(t *testing.T) {
	var method, path string
	var payload eventPayload
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		raw := readBody(t, r)
		assert.NoError(t, json.Unmarshal(raw, &payload))
		writeJSON(w, http.StatusCreated, `{"id":"AAMkAGI1AAAt9AHjAAA="}`)
	})

	s := newTestSession(t, handler, newFakeCredential("token"))
	require.NoError(t, s.CreateEvent(context.Background(), lunchEvent()))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/me/events", path)

	assert.Equal(t, "Let's go for lunch", payload.Subject)
	assert.Equal(t, "html", payload.Body.ContentType)
	assert.Equal(t, "2025-06-15T12:00:00", payload.Start.DateTime)
	assert.Equal(t, "UTC", payload.Start.TimeZone)
	assert.Equal(t, "2025-06-15T14:00:00", payload.End.DateTime)
	assert.Equal(t, "Harry's Bar", payload.Location.DisplayName)
	assert.True(t, payload.AllowNewTimeProposals)
	assert.Equal(t, "7E163156-7762-4BEB-A1C6-729EA81755A7", payload.TransactionID)

	require.Len(t, payload.Attendees, 2)
	assert.Equal(t, "adelev@contoso.com", payload.Attendees[0].EmailAddress.Address)
	assert.Equal(t, "Adele Vance", payload.Attendees[0].EmailAddress.Name)
	assert.Equal(t, "required", payload.Attendees[0].Type)
	assert.Equal(t, "optional", payload.Attendees[1].Type)
}

func TestCreateEvent_InvalidRequest(t *testing.T) {
	handler := &countingHandler{}
	_, opts := newGraphServer(t, handler, newFakeCredential("token"))
	s, err := NewSession(testSettings(), noPrompt, opts...)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *EventRequest) *EventRequest
	}{
		{name: "nil", mutate: func(*EventRequest) *EventRequest { return nil }},
		{name: "empty subject", mutate: func(r *EventRequest) *EventRequest { r.Subject = " "; return r }},
		{name: "missing start", mutate: func(r *EventRequest) *EventRequest { r.Start = time.Time{}; return r }},
		{name: "end before start", mutate: func(r *EventRequest) *EventRequest { r.End = r.Start.Add(-time.Hour); return r }},
		{name: "zero length", mutate: func(r *EventRequest) *EventRequest { r.End = r.Start; return r }},
		{name: "bad body type", mutate: func(r *EventRequest) *EventRequest { r.BodyType = "markdown"; return r }},
		{name: "bad attendee", mutate: func(r *EventRequest) *EventRequest {
			r.Attendees = append(r.Attendees, Attendee{Address: "nobody"})
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateEvent(context.Background(), tt.mutate(lunchEvent()))
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	assert.Zero(t, handler.requests())
}

func TestEventRequest_ToModelDefaults(t *testing.T) {
	start := time.Date(2025, 6, 15, 14, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	req := &EventRequest{
		Subject: "Sync",
		Start:   start,
		End:     start.Add(30 * time.Minute),
	}

	event := req.toModel()

	require.NotNil(t, event.GetTransactionId())
	_, err := uuid.Parse(*event.GetTransactionId())
	assert.NoError(t, err)

	require.NotNil(t, event.GetStart())
	assert.Equal(t, "UTC", *event.GetStart().GetTimeZone())
	assert.Equal(t, "2025-06-15T12:30:00", *event.GetStart().GetDateTime())

	require.NotNil(t, event.GetAllowNewTimeProposals())
	assert.False(t, *event.GetAllowNewTimeProposals())
	assert.Nil(t, event.GetLocation())
	assert.Empty(t, event.GetAttendees())
}

func TestNewDateTimeTimeZone(t *testing.T) {
	noon := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		zone     string
		wantTime string
	}{
		{name: "default utc", zone: "", wantTime: "2025-01-10T12:00:00"},
		{name: "iana zone converts", zone: "America/New_York", wantTime: "2025-01-10T07:00:00"},
		{name: "windows zone kept as is", zone: "Pacific Standard Time", wantTime: "2025-01-10T12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dtz := newDateTimeTimeZone(noon, tt.zone)
			assert.Equal(t, tt.wantTime, *dtz.GetDateTime())
			if tt.zone == "" {
				assert.Equal(t, "UTC", *dtz.GetTimeZone())
			} else {
				assert.Equal(t, tt.zone, *dtz.GetTimeZone())
			}
		})
	}
}
