package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
)

type RunAutoProcessRequest struct{}

type ThreadOutcome struct {
	ThreadID string `json:"thread_id"`
	Pass     string `json:"pass" jsonschema:"capture or resolution"`
	Status   string `json:"status,omitempty" jsonschema:"classifier status"`
	Action   string `json:"action" jsonschema:"what the run did with the thread"`
	EventRef string `json:"event_ref,omitempty"`
	Error    string `json:"error,omitempty"`
}

type RunAutoProcessResponse struct {
	RunID      string          `json:"run_id,omitempty"`
	Skipped    bool            `json:"skipped" jsonschema:"auto mode is disabled"`
	StartedAt  string          `json:"started_at,omitempty"`
	FinishedAt string          `json:"finished_at,omitempty"`
	Captured   int             `json:"captured"`
	Replied    int             `json:"replied"`
	Resolved   int             `json:"resolved"`
	Scheduled  int             `json:"scheduled"`
	FollowUps  int             `json:"follow_ups"`
	Failures   int             `json:"failures"`
	Outcomes   []ThreadOutcome `json:"outcomes" jsonschema:"per-thread results"`
}

type autoRunner interface {
	Run(ctx context.Context) (autoprocess.Report, error)
}

func NewRunAutoProcess(svc autoRunner) *RunAutoProcess {
	return &RunAutoProcess{svc: svc}
}

type RunAutoProcess struct {
	svc autoRunner
}

func (t *RunAutoProcess) RunAutoProcess(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RunAutoProcessRequest,
) (*mcp.CallToolResult, RunAutoProcessResponse, error) {
	report, err := t.svc.Run(ctx)
	if err != nil {
		return nil, RunAutoProcessResponse{}, fmt.Errorf("svc.Run failed: %w", err)
	}

	return nil, reportFrom(report), nil
}

func reportFrom(r autoprocess.Report) RunAutoProcessResponse {
	out := RunAutoProcessResponse{
		RunID:     r.RunID,
		Skipped:   r.Skipped,
		Captured:  r.Captured,
		Replied:   r.Replied,
		Resolved:  r.Resolved,
		Scheduled: r.Scheduled,
		FollowUps: r.FollowUps,
		Failures:  r.Failures,
		Outcomes:  make([]ThreadOutcome, 0, len(r.Outcomes)),
	}
	if !r.StartedAt.IsZero() {
		out.StartedAt = r.StartedAt.Format(time.RFC3339)
		out.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, ThreadOutcome{
			ThreadID: o.ThreadID,
			Pass:     string(o.Pass),
			Status:   o.Status,
			Action:   string(o.Action),
			EventRef: o.EventRef,
			Error:    o.Error,
		})
	}
	return out
}
