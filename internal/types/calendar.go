package types

import (
	"time"
)

// ResponseDeclined is the calendar response status of a declined invitation.
const ResponseDeclined = "declined"

// BusyEvent is a calendar event as listed for a queried window.
type BusyEvent struct {
	Ref                string
	Title              string
	Start              time.Time
	End                time.Time
	IsAllDay           bool
	UserResponseStatus string
	Attendees          []string
}

// Blocks reports whether the event makes its time unavailable.
func (e BusyEvent) Blocks() bool {
	return !e.IsAllDay && e.UserResponseStatus != ResponseDeclined
}

// Overlaps reports whether the event intersects [start, end).
func (e BusyEvent) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

// FreeSlot is an available window inside business hours.
type FreeSlot struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DisplayText string    `json:"display_text"`
}

// ConflictState is the availability verdict for a proposed time.
type ConflictState string

const (
	ConflictFree    ConflictState = "free"
	ConflictBusy    ConflictState = "busy"
	ConflictUnknown ConflictState = "unknown"
)

// ProposedTimeCheck is a proposed time annotated with its conflict state.
type ProposedTimeCheck struct {
	ProposedTime
	ConflictState ConflictState `json:"conflict_state" jsonschema:"free, busy or unknown"`
	Label         string        `json:"label" jsonschema:"short availability label"`
}

// InviteMethod names the detector layer that produced a result.
type InviteMethod string

const (
	MethodExplicitSignal   InviteMethod = "explicit_signal"
	MethodParticipantMatch InviteMethod = "participant_match"
	MethodTitleMatch       InviteMethod = "title_match"
	MethodNotFound         InviteMethod = "not_found"
)

// InviteCheckResult reports whether a meeting already appears to be booked.
type InviteCheckResult struct {
	AlreadyScheduled bool         `json:"already_scheduled"`
	EventRef         string       `json:"event_ref,omitempty"`
	Method           InviteMethod `json:"method"`
}
