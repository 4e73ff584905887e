package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/invite"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type BookMeetingRequest struct {
	Analysis Analysis `json:"analysis" jsonschema:"thread analysis carrying the agreed time and participants"`
}

type BookMeetingResponse struct {
	EventRef string      `json:"event_ref,omitempty" jsonschema:"id of the created or existing event"`
	Created  bool        `json:"created" jsonschema:"a new event was created"`
	Existing InviteCheck `json:"existing" jsonschema:"duplicate check performed before booking"`
}

type meetingBooker interface {
	Book(ctx context.Context, analysis *types.ThreadAnalysis) (invite.BookResult, error)
}

func NewBookMeeting(svc meetingBooker) *BookMeeting {
	return &BookMeeting{svc: svc}
}

type BookMeeting struct {
	svc meetingBooker
}

func (t *BookMeeting) BookMeeting(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input BookMeetingRequest,
) (*mcp.CallToolResult, BookMeetingResponse, error) {
	analysis, err := input.Analysis.toTypes()
	if err != nil {
		return nil, BookMeetingResponse{}, err
	}

	res, err := t.svc.Book(ctx, analysis)
	if err != nil {
		return nil, BookMeetingResponse{}, fmt.Errorf("svc.Book failed: %w", err)
	}

	return nil, BookMeetingResponse{
		EventRef: res.EventRef,
		Created:  res.Created,
		Existing: inviteCheckFrom(res.Existing),
	}, nil
}
