package classifier

import (
	"fmt"
	"strings"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

func classifySystemPrompt() string {
	names := make([]string, 0, len(types.Statuses))
	for _, s := range types.Statuses {
		names = append(names, s.String())
	}

	return `You read email threads for a busy person ("the user") and decide where each thread stands in scheduling a meeting.

Answer with a single JSON object and nothing else:
{
  "status": one of ` + strings.Join(names, ", ") + `,
  "proposed_times": [{"proposed_by": "user" or "counterpart", "display_text": "...", "start_iso": "..."}],
  "agreed_time": {"start_iso": "...", "end_iso": "...", "timezone": "IANA name", "display_text": "..."},
  "participant_emails": ["..."],
  "calendar_invite_sent_signal": true or false,
  "meeting_title": "...",
  "duration_minutes": number
}

Status meanings:
- not_scheduling: the thread is not about arranging a meeting.
- inbound_request: someone asks the user to meet and no times are settled.
- no_agreement: times were discussed but nothing was accepted.
- user_promised_times: the user said they would send times and has not.
- awaiting_response: the user offered times and waits for an answer.
- agreement_reached: both sides accepted one concrete time; agreed_time must carry both bounds.
- already_scheduled: a calendar invite for the meeting was already sent.

Use ISO-8601 timestamps with offsets. Leave start_iso empty when a time is too vague to pin down.`
}

func classifyPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Today is %s.\n", req.Today.Format("Monday, January 2, 2006 (MST)"))
	fmt.Fprintf(&sb, "Subject: %s\n", req.Subject)
	if req.HasAttachmentSignal {
		sb.WriteString("A calendar invite attachment is present in the thread.\n")
	}
	sb.WriteString("\nThread:\n")
	sb.WriteString(req.Transcript)
	return sb.String()
}

const chooseSystemPrompt = `The user was offered several meeting times and replied. Decide which candidate they picked.
Answer with a single JSON object {"index": n} where n is the zero-based candidate index.`

func choosePrompt(text string, candidates []types.ProposedTimeCheck) string {
	var sb strings.Builder
	sb.WriteString("Candidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i, c.DisplayText, c.Label)
	}
	fmt.Fprintf(&sb, "\nReply: %s\n", text)
	return sb.String()
}
