package gservice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-scheduler/internal/auth"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// PrimaryCalendar is the calendar id of the authenticated user's calendar.
const PrimaryCalendar = "primary"

// NewCalendar creates a Calendar client for calendarID.
func NewCalendar(cfg *oauth2.Config, tok *auth.Token, calendarID string, logger *zap.Logger) *Calendar {
	if calendarID == "" {
		calendarID = PrimaryCalendar
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calendar{cfg: cfg, tok: tok, calendarID: calendarID, logger: logger}
}

// Calendar lists busy events and books meetings.
type Calendar struct {
	cfg        *oauth2.Config
	tok        *auth.Token
	calendarID string
	logger     *zap.Logger
}

// ListBusyEvents returns every event overlapping [start, end), expanded to
// single instances. Cancelled and transparent events are left out.
func (c *Calendar) ListBusyEvents(ctx context.Context, start, end time.Time) ([]types.BusyEvent, error) {
	svc, err := c.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	var events []types.BusyEvent
	pageToken := ""
	for {
		call := svc.Events.List(c.calendarID).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("events.List failed: %w", err)
		}

		for _, ev := range result.Items {
			if ev.Status == "cancelled" || ev.Transparency == "transparent" {
				continue
			}
			if be, ok := convertEvent(ev); ok {
				events = append(events, be)
			}
		}

		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	return events, nil
}

// CreateEvent books an event and e-mails invitations to guests.
func (c *Calendar) CreateEvent(ctx context.Context, title string, start, end time.Time, guests []string) (string, error) {
	svc, err := c.newSvc(ctx)
	if err != nil {
		return "", fmt.Errorf("newSvc failed: %w", err)
	}

	attendees := make([]*calendar.EventAttendee, 0, len(guests))
	for _, g := range guests {
		attendees = append(attendees, &calendar.EventAttendee{Email: g})
	}

	ev, err := svc.Events.Insert(c.calendarID, &calendar.Event{
		Summary:   title,
		Start:     &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:       &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		Attendees: attendees,
	}).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("events.Insert failed: %w", err)
	}

	c.logger.Info("event created", zap.String("event_ref", ev.Id), zap.Int("guests", len(guests)))
	return ev.Id, nil
}

func (c *Calendar) newSvc(ctx context.Context) (*calendar.Service, error) {
	clt, err := httpClient(ctx, c.cfg, c.tok)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("calendar.NewService failed: %w", err)
	}

	return svc, nil
}

func convertEvent(ev *calendar.Event) (types.BusyEvent, bool) {
	if ev.Start == nil || ev.End == nil {
		return types.BusyEvent{}, false
	}

	be := types.BusyEvent{Ref: ev.Id, Title: ev.Summary}
	if ev.Start.DateTime == "" {
		be.IsAllDay = true
		start, err := time.Parse(time.DateOnly, ev.Start.Date)
		if err != nil {
			return types.BusyEvent{}, false
		}
		end, err := time.Parse(time.DateOnly, ev.End.Date)
		if err != nil {
			return types.BusyEvent{}, false
		}
		be.Start, be.End = start, end
	} else {
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return types.BusyEvent{}, false
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			return types.BusyEvent{}, false
		}
		be.Start, be.End = start, end
	}

	for _, a := range ev.Attendees {
		be.Attendees = append(be.Attendees, a.Email)
		if a.Self {
			be.UserResponseStatus = a.ResponseStatus
		}
	}
	if ev.Organizer != nil && ev.Organizer.Email != "" {
		be.Attendees = append(be.Attendees, ev.Organizer.Email)
	}

	return be, true
}
