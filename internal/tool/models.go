package tool

import (
	"fmt"
	"time"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type Slot struct {
	Start       string `json:"start" jsonschema:"RFC3339 start of the window"`
	End         string `json:"end" jsonschema:"RFC3339 end of the window"`
	DisplayText string `json:"display_text" jsonschema:"human readable window"`
}

type Candidate struct {
	ProposedBy  string `json:"proposed_by,omitempty" jsonschema:"who proposed the time (user or counterpart)"`
	DisplayText string `json:"display_text" jsonschema:"human readable time"`
	StartISO    string `json:"start_iso,omitempty" jsonschema:"ISO-8601 start, empty when unknown"`
}

type CandidateCheck struct {
	ProposedBy    string `json:"proposed_by,omitempty" jsonschema:"who proposed the time"`
	DisplayText   string `json:"display_text" jsonschema:"human readable time"`
	StartISO      string `json:"start_iso,omitempty" jsonschema:"ISO-8601 start"`
	ConflictState string `json:"conflict_state" jsonschema:"free, busy or unknown"`
	Label         string `json:"label,omitempty" jsonschema:"short availability label"`
}

type AgreedTime struct {
	StartISO    string `json:"start_iso" jsonschema:"ISO-8601 start"`
	EndISO      string `json:"end_iso" jsonschema:"ISO-8601 end"`
	Timezone    string `json:"timezone,omitempty" jsonschema:"IANA zone for times without offset"`
	DisplayText string `json:"display_text,omitempty" jsonschema:"human readable time"`
}

type Analysis struct {
	Status                   string      `json:"status,omitempty" jsonschema:"scheduling status, e.g. agreement_reached"`
	ProposedTimes            []Candidate `json:"proposed_times,omitempty" jsonschema:"times mentioned in the thread"`
	AgreedTime               *AgreedTime `json:"agreed_time,omitempty" jsonschema:"time both sides agreed on"`
	ParticipantEmails        []string    `json:"participant_emails,omitempty" jsonschema:"addresses of the meeting participants"`
	CalendarInviteSentSignal bool        `json:"calendar_invite_sent_signal,omitempty" jsonschema:"thread says an invite was already sent"`
	MeetingTitle             string      `json:"meeting_title,omitempty" jsonschema:"meeting title"`
	DurationMinutes          int         `json:"duration_minutes,omitempty" jsonschema:"meeting length in minutes"`
}

type InviteCheck struct {
	AlreadyScheduled bool   `json:"already_scheduled" jsonschema:"an event for the agreed time exists"`
	EventRef         string `json:"event_ref,omitempty" jsonschema:"id of the matching event"`
	Method           string `json:"method" jsonschema:"detector layer that decided"`
}

func slotsFrom(in []types.FreeSlot) []Slot {
	out := make([]Slot, 0, len(in))
	for _, s := range in {
		out = append(out, Slot{
			Start:       s.Start.Format(time.RFC3339),
			End:         s.End.Format(time.RFC3339),
			DisplayText: s.DisplayText,
		})
	}
	return out
}

func (c Candidate) toTypes() types.ProposedTime {
	return types.ProposedTime{ProposedBy: c.ProposedBy, DisplayText: c.DisplayText, StartISO: c.StartISO}
}

func (c CandidateCheck) toTypes() types.ProposedTimeCheck {
	return types.ProposedTimeCheck{
		ProposedTime:  types.ProposedTime{ProposedBy: c.ProposedBy, DisplayText: c.DisplayText, StartISO: c.StartISO},
		ConflictState: types.ConflictState(c.ConflictState),
		Label:         c.Label,
	}
}

func checkFrom(c types.ProposedTimeCheck) CandidateCheck {
	return CandidateCheck{
		ProposedBy:    c.ProposedBy,
		DisplayText:   c.DisplayText,
		StartISO:      c.StartISO,
		ConflictState: string(c.ConflictState),
		Label:         c.Label,
	}
}

func checksFrom(in []types.ProposedTimeCheck) []CandidateCheck {
	out := make([]CandidateCheck, 0, len(in))
	for _, c := range in {
		out = append(out, checkFrom(c))
	}
	return out
}

// toTypes converts the wire analysis. An empty status is left at its zero
// value.
func (a Analysis) toTypes() (*types.ThreadAnalysis, error) {
	out := &types.ThreadAnalysis{
		ParticipantEmails:        a.ParticipantEmails,
		CalendarInviteSentSignal: a.CalendarInviteSentSignal,
		MeetingTitle:             a.MeetingTitle,
		DurationMinutes:          a.DurationMinutes,
	}
	if a.Status != "" {
		st, err := types.ParseStatus(a.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrValidation, err)
		}
		out.Status = st
	}
	for _, p := range a.ProposedTimes {
		out.ProposedTimes = append(out.ProposedTimes, p.toTypes())
	}
	if a.AgreedTime != nil {
		out.AgreedTime = &types.AgreedTime{
			StartISO:    a.AgreedTime.StartISO,
			EndISO:      a.AgreedTime.EndISO,
			Timezone:    a.AgreedTime.Timezone,
			DisplayText: a.AgreedTime.DisplayText,
		}
	}
	return out, nil
}

func analysisFrom(a *types.ThreadAnalysis) Analysis {
	out := Analysis{
		Status:                   a.Status.String(),
		ParticipantEmails:        a.ParticipantEmails,
		CalendarInviteSentSignal: a.CalendarInviteSentSignal,
		MeetingTitle:             a.MeetingTitle,
		DurationMinutes:          a.DurationMinutes,
	}
	for _, p := range a.ProposedTimes {
		out.ProposedTimes = append(out.ProposedTimes, Candidate{
			ProposedBy:  p.ProposedBy,
			DisplayText: p.DisplayText,
			StartISO:    p.StartISO,
		})
	}
	if a.AgreedTime != nil {
		out.AgreedTime = &AgreedTime{
			StartISO:    a.AgreedTime.StartISO,
			EndISO:      a.AgreedTime.EndISO,
			Timezone:    a.AgreedTime.Timezone,
			DisplayText: a.AgreedTime.DisplayText,
		}
	}
	return out
}

func inviteCheckFrom(r types.InviteCheckResult) InviteCheck {
	return InviteCheck{AlreadyScheduled: r.AlreadyScheduled, EventRef: r.EventRef, Method: string(r.Method)}
}
