// Package display renders scheduler output for the terminal.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/db"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

var (
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	Warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
)

// SuccessMsg prints a green checkmark and message.
func SuccessMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg prints a red cross and message.
func ErrorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Slots lists free slots, one per line.
func Slots(w io.Writer, slots []types.FreeSlot) {
	if len(slots) == 0 {
		fmt.Fprintln(w, Warn.Render("No free slots in the search horizon."))
		return
	}
	fmt.Fprintln(w, Bold.Render("Free slots"))
	for i, s := range slots {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, s.DisplayText,
			Muted.Render(fmt.Sprintf("(%s)", s.End.Sub(s.Start))))
	}
}

// ActionLabel styles an outcome action.
func ActionLabel(a autoprocess.Action) string {
	label := fmt.Sprintf("%-15s", a)
	switch a {
	case autoprocess.ActionReplied, autoprocess.ActionScheduled:
		return Success.Render(label)
	case autoprocess.ActionFollowUp, autoprocess.ActionNoSlots:
		return Warn.Render(label)
	case autoprocess.ActionFailed:
		return ErrStyle.Render(label)
	default:
		return Muted.Render(label)
	}
}

// Report prints an invocation summary followed by per-thread outcomes.
func Report(w io.Writer, r autoprocess.Report) {
	if r.Skipped {
		fmt.Fprintln(w, Muted.Render("Auto mode is disabled; nothing to do."))
		return
	}

	fmt.Fprintf(w, "%s %s\n", Bold.Render("Run"), r.RunID)
	fmt.Fprintf(w, "  captured %d  replied %d  resolved %d  scheduled %d  follow-ups %d  failures %d\n",
		r.Captured, r.Replied, r.Resolved, r.Scheduled, r.FollowUps, r.Failures)
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("  %-10s %s %s", o.Pass, ActionLabel(o.Action), o.ThreadID)
		if o.EventRef != "" {
			line += " " + Muted.Render("event "+o.EventRef)
		}
		if o.Error != "" {
			line += " " + ErrStyle.Render(o.Error)
		}
		fmt.Fprintln(w, line)
	}
}

// Status prints ledger size and recent run history.
func Status(w io.Writer, ledgerSize int, runs []db.Run) {
	fmt.Fprintf(w, "%s %d threads\n", Bold.Render("Ledger"), ledgerSize)
	if len(runs) == 0 {
		fmt.Fprintln(w, Muted.Render("No runs recorded."))
		return
	}

	fmt.Fprintln(w, Bold.Render("Recent runs"))
	for _, r := range runs {
		state := Success.Render("ok")
		if r.Error != "" {
			state = ErrStyle.Render("error: " + r.Error)
		} else if r.Failures > 0 {
			state = Warn.Render(fmt.Sprintf("%d failures", r.Failures))
		}
		fmt.Fprintf(w, "  %s  %s  captured %d replied %d scheduled %d  %s\n",
			r.StartedAt.Local().Format(time.DateTime),
			Muted.Render(r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()),
			r.Captured, r.Replied, r.Scheduled, state)
	}
}
