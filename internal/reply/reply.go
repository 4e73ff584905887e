// Package reply writes the plain-text bodies of scheduling replies.
package reply

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// Availability offers slots to the person who asked for a meeting.
func Availability(recipient string, slots []types.FreeSlot, signOff string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n\n", greeting(recipient))
	sb.WriteString("Thanks for reaching out. Here are a few times that work for me:\n\n")
	for _, s := range slots {
		fmt.Fprintf(&sb, "- %s\n", s.DisplayText)
	}
	sb.WriteString("\nLet me know which one suits you and I will send over an invite.\n")
	writeSignOff(&sb, signOff)

	return sb.String()
}

// Confirmation acknowledges a booked meeting.
func Confirmation(recipient, when, signOff string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n\n", greeting(recipient))
	fmt.Fprintf(&sb, "Great, I have sent a calendar invite for %s.\n", when)
	writeSignOff(&sb, signOff)

	return sb.String()
}

func writeSignOff(sb *strings.Builder, signOff string) {
	sb.WriteString("\nBest,\n")
	if signOff = strings.TrimSpace(signOff); signOff != "" {
		sb.WriteString(signOff)
		sb.WriteString("\n")
	}
}

// greeting addresses the recipient by first name when the header has one.
func greeting(recipient string) string {
	addr, err := mail.ParseAddress(recipient)
	if err != nil || strings.TrimSpace(addr.Name) == "" {
		return "Hi,"
	}
	name := strings.Fields(strings.Trim(addr.Name, `"' `))
	if len(name) == 0 {
		return "Hi,"
	}
	return fmt.Sprintf("Hi %s,", name[0])
}
