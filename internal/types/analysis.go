package types

import (
	"fmt"
	"strings"
	"time"
)

// ProposedTime is one candidate meeting time mentioned in a thread.
type ProposedTime struct {
	ProposedBy  string `json:"proposed_by" jsonschema:"who proposed the time (user or counterpart)"`
	DisplayText string `json:"display_text" jsonschema:"human readable time"`
	StartISO    string `json:"start_iso,omitempty" jsonschema:"ISO-8601 start, empty when unknown"`
}

// AgreedTime is the concrete booking both sides agreed on.
type AgreedTime struct {
	StartISO    string `json:"start_iso"`
	EndISO      string `json:"end_iso"`
	Timezone    string `json:"timezone,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
}

// Bounds parses both ends of the agreed time.
func (a *AgreedTime) Bounds() (start, end time.Time, err error) {
	if a == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("agreed time missing")
	}
	loc := time.UTC
	if a.Timezone != "" {
		if l, lerr := time.LoadLocation(a.Timezone); lerr == nil {
			loc = l
		}
	}
	start, ok := ParseISO(a.StartISO, loc)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unparseable agreed start %q", a.StartISO)
	}
	end, ok = ParseISO(a.EndISO, loc)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unparseable agreed end %q", a.EndISO)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("agreed end %s not after start %s", a.EndISO, a.StartISO)
	}
	return start, end, nil
}

// ThreadAnalysis is the classifier's reading of a thread.
type ThreadAnalysis struct {
	Status                   Status         `json:"status"`
	ProposedTimes            []ProposedTime `json:"proposed_times,omitempty"`
	AgreedTime               *AgreedTime    `json:"agreed_time,omitempty"`
	ParticipantEmails        []string       `json:"participant_emails,omitempty"`
	CalendarInviteSentSignal bool           `json:"calendar_invite_sent_signal"`
	MeetingTitle             string         `json:"meeting_title,omitempty"`
	DurationMinutes          int            `json:"duration_minutes,omitempty"`
}

// Validate enforces the invariants a usable analysis must hold.
func (a *ThreadAnalysis) Validate() error {
	if _, err := a.Status.MarshalText(); err != nil {
		return err
	}
	if a.DurationMinutes < 0 {
		return fmt.Errorf("negative duration %d", a.DurationMinutes)
	}
	if a.Status == StatusAgreementReached {
		if a.AgreedTime == nil || a.AgreedTime.StartISO == "" || a.AgreedTime.EndISO == "" {
			return fmt.Errorf("status %s requires both agreed time bounds", a.Status)
		}
	}
	return nil
}

// Participants returns the participant set lower-cased and de-duplicated,
// without the given owner address.
func (a *ThreadAnalysis) Participants(owner string) []string {
	owner = strings.ToLower(strings.TrimSpace(owner))
	seen := make(map[string]struct{}, len(a.ParticipantEmails))
	out := make([]string, 0, len(a.ParticipantEmails))
	for _, p := range a.ParticipantEmails {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || p == owner {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

var isoLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseISO parses an ISO-8601 timestamp. Timestamps without an offset are
// read in loc.
func ParseISO(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
