package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type SendReplyRequest struct {
	ThreadID  string `json:"thread_id" jsonschema:"Gmail thread id"`
	MessageID string `json:"message_id,omitempty" jsonschema:"message to answer, default the latest one from the counterpart"`
	Body      string `json:"body" jsonschema:"plain-text reply body"`
}

type SendReplyResponse struct {
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id" jsonschema:"message that was answered"`
	Sent      bool   `json:"sent"`
}

type sendReplySvc interface {
	OwnerEmail(ctx context.Context) (string, error)
	GetThread(ctx context.Context, threadID string) (*types.Thread, error)
	SendReply(ctx context.Context, thread *types.Thread, messageID, body string) error
}

func NewSendReply(svc sendReplySvc) *SendReply {
	return &SendReply{svc: svc}
}

type SendReply struct {
	svc sendReplySvc
}

func (t *SendReply) SendReply(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SendReplyRequest,
) (*mcp.CallToolResult, SendReplyResponse, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, SendReplyResponse{}, fmt.Errorf("%w: reply body is empty", types.ErrValidation)
	}
	if strings.TrimSpace(input.ThreadID) == "" {
		return nil, SendReplyResponse{}, fmt.Errorf("%w: thread_id is required", types.ErrValidation)
	}

	thread, err := t.svc.GetThread(ctx, input.ThreadID)
	if err != nil {
		return nil, SendReplyResponse{}, fmt.Errorf("svc.GetThread failed: %w", err)
	}

	messageID := input.MessageID
	if messageID == "" {
		owner, err := t.svc.OwnerEmail(ctx)
		if err != nil {
			return nil, SendReplyResponse{}, fmt.Errorf("svc.OwnerEmail failed: %w", err)
		}
		target, ok := thread.LastFromOthers(owner)
		if !ok {
			return nil, SendReplyResponse{}, fmt.Errorf("%w: thread %s has no message to answer", types.ErrValidation, thread.ID)
		}
		messageID = target.ID
	}

	if err := t.svc.SendReply(ctx, thread, messageID, input.Body); err != nil {
		return nil, SendReplyResponse{}, fmt.Errorf("svc.SendReply failed: %w", err)
	}

	return nil, SendReplyResponse{ThreadID: thread.ID, MessageID: messageID, Sent: true}, nil
}
