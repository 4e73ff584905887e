package types

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Marker is a coarse, externally persisted thread phase.
type Marker string

const (
	MarkerAwaiting      Marker = "Awaiting"
	MarkerNeedsFollowUp Marker = "NeedsFollowUp"
	MarkerScheduled     Marker = "Scheduled"
)

// Markers lists every Marker.
var Markers = []Marker{MarkerAwaiting, MarkerNeedsFollowUp, MarkerScheduled}

// Message is one message of a mailbox thread. References holds the raw
// References header, oldest id first.
type Message struct {
	ID         string
	MessageID  string
	References string
	From       string
	ReplyTo    string
	To         string
	CC         string
	Subject    string
	Date       time.Time
	Body       string
	HasInvite  bool
}

// Thread is a mailbox conversation in chronological order.
type Thread struct {
	ID       string
	Subject  string
	Messages []Message
}

// HasInviteSignal reports whether any message carries a calendar invite.
func (t *Thread) HasInviteSignal() bool {
	for _, m := range t.Messages {
		if m.HasInvite {
			return true
		}
	}
	return false
}

// Transcript renders the thread as plain text for the classifier.
func (t *Thread) Transcript() string {
	var sb strings.Builder
	for i, m := range t.Messages {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "From: %s\n", m.From)
		if m.To != "" {
			fmt.Fprintf(&sb, "To: %s\n", m.To)
		}
		if m.CC != "" {
			fmt.Fprintf(&sb, "Cc: %s\n", m.CC)
		}
		if !m.Date.IsZero() {
			fmt.Fprintf(&sb, "Date: %s\n", m.Date.Format(time.RFC1123Z))
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(m.Body))
		sb.WriteString("\n")
	}
	return sb.String()
}

// LastFromOthers returns the latest message not sent by owner.
func (t *Thread) LastFromOthers(owner string) (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if !SameAddress(t.Messages[i].From, owner) {
			return t.Messages[i], true
		}
	}
	return Message{}, false
}

// CounterpartReplied reports whether someone other than owner wrote after
// the owner's last message.
func (t *Thread) CounterpartReplied(owner string) bool {
	last := -1
	for i, m := range t.Messages {
		if SameAddress(m.From, owner) {
			last = i
		}
	}
	for _, m := range t.Messages[last+1:] {
		if !SameAddress(m.From, owner) {
			return true
		}
	}
	return false
}

// AddressOf extracts the bare, lower-cased address from a header value.
func AddressOf(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if a, err := mail.ParseAddress(header); err == nil {
		return strings.ToLower(a.Address)
	}
	if i := strings.LastIndex(header, "<"); i != -1 {
		if j := strings.Index(header[i:], ">"); j != -1 {
			return strings.ToLower(strings.TrimSpace(header[i+1 : i+j]))
		}
	}
	return strings.ToLower(header)
}

// SameAddress compares two header values by address.
func SameAddress(a, b string) bool {
	x, y := AddressOf(a), AddressOf(b)
	return x != "" && x == y
}
