package autoprocess

import "time"

// Pass names the phase a thread was handled in.
type Pass string

const (
	PassCapture    Pass = "capture"
	PassResolution Pass = "resolution"
)

// Action is what an invocation did with a thread.
type Action string

const (
	ActionNone      Action = "none"
	ActionReplied   Action = "replied"
	ActionNoSlots   Action = "no_slots"
	ActionScheduled Action = "scheduled"
	ActionFollowUp  Action = "needs_follow_up"
	ActionFailed    Action = "failed"
	ActionWaiting   Action = "waiting"
)

// Outcome describes one handled thread.
type Outcome struct {
	ThreadID string `json:"thread_id"`
	Pass     Pass   `json:"pass"`
	Status   string `json:"status,omitempty"`
	Action   Action `json:"action"`
	EventRef string `json:"event_ref,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report summarizes an invocation.
type Report struct {
	RunID      string    `json:"run_id,omitempty"`
	Skipped    bool      `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Captured   int       `json:"captured"`
	Replied    int       `json:"replied"`
	Resolved   int       `json:"resolved"`
	Scheduled  int       `json:"scheduled"`
	FollowUps  int       `json:"follow_ups"`
	Failures   int       `json:"failures"`
	Outcomes   []Outcome `json:"outcomes,omitempty"`
}

func (r *Report) add(o Outcome) {
	if o.Action == ActionFailed {
		r.Failures++
	}
	r.Outcomes = append(r.Outcomes, o)
}
