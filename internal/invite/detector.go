// Package invite detects meetings that are already booked and books the ones
// that are not.
package invite

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// searchWindow is how far around the agreed start existing events are searched.
const searchWindow = time.Hour

type eventLister interface {
	ListBusyEvents(ctx context.Context, start, end time.Time) ([]types.BusyEvent, error)
}

type ownerSource interface {
	OwnerEmail(ctx context.Context) (string, error)
}

// StaticOwner is an owner address known up front.
type StaticOwner string

func (s StaticOwner) OwnerEmail(context.Context) (string, error) {
	return string(s), nil
}

// NewDetector creates a duplicate invite detector. The owner address is
// excluded from participant matching.
func NewDetector(cal eventLister, owner ownerSource, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cal: cal, owner: owner, logger: logger}
}

// Detector checks whether an agreed meeting already has a calendar event.
type Detector struct {
	cal    eventLister
	owner  ownerSource
	logger *zap.Logger
}

// CheckExistingInvite runs the explicit-signal, participant and title layers
// in order and returns the first match. It never fails: calendar errors count
// as not found.
func (d *Detector) CheckExistingInvite(ctx context.Context, analysis *types.ThreadAnalysis) types.InviteCheckResult {
	notFound := types.InviteCheckResult{Method: types.MethodNotFound}
	if analysis == nil {
		return notFound
	}

	if analysis.CalendarInviteSentSignal {
		return types.InviteCheckResult{AlreadyScheduled: true, Method: types.MethodExplicitSignal}
	}

	if analysis.AgreedTime == nil {
		return notFound
	}
	loc := time.UTC
	if analysis.AgreedTime.Timezone != "" {
		if l, err := time.LoadLocation(analysis.AgreedTime.Timezone); err == nil {
			loc = l
		}
	}
	start, ok := types.ParseISO(analysis.AgreedTime.StartISO, loc)
	if !ok {
		return notFound
	}

	owner, err := d.owner.OwnerEmail(ctx)
	if err != nil {
		d.logger.Warn("owner lookup failed", zap.Error(err))
		return notFound
	}

	events, err := d.cal.ListBusyEvents(ctx, start.Add(-searchWindow), start.Add(searchWindow))
	if err != nil {
		d.logger.Warn("existing invite lookup failed", zap.Error(err))
		return notFound
	}

	participants := make(map[string]struct{})
	for _, p := range analysis.Participants(owner) {
		participants[p] = struct{}{}
	}
	if len(participants) > 0 {
		for _, ev := range events {
			for _, guest := range ev.Attendees {
				if _, ok := participants[strings.ToLower(strings.TrimSpace(guest))]; ok {
					return types.InviteCheckResult{AlreadyScheduled: true, EventRef: ev.Ref, Method: types.MethodParticipantMatch}
				}
			}
		}
	}

	tokens := TitleTokens(analysis.MeetingTitle)
	if len(tokens) > 0 {
		for _, ev := range events {
			title := strings.ToLower(ev.Title)
			hits := 0
			for _, tok := range tokens {
				if strings.Contains(title, tok) {
					hits++
				}
			}
			if hits*2 >= len(tokens) {
				return types.InviteCheckResult{AlreadyScheduled: true, EventRef: ev.Ref, Method: types.MethodTitleMatch}
			}
		}
	}

	return notFound
}

// TitleTokens splits a title into lower-cased words longer than 3 characters.
func TitleTokens(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) > 3 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
