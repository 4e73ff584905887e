package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type AnalyzeThreadRequest struct {
	ThreadID string `json:"thread_id" jsonschema:"Gmail thread id"`
}

type AnalyzeThreadResponse struct {
	ThreadID     string   `json:"thread_id"`
	Subject      string   `json:"subject"`
	MessageCount int      `json:"message_count"`
	Analysis     Analysis `json:"analysis" jsonschema:"classifier verdict for the thread"`
}

type threadGetter interface {
	GetThread(ctx context.Context, threadID string) (*types.Thread, error)
}

type threadClassifier interface {
	Classify(ctx context.Context, req classifier.Request) (*types.ThreadAnalysis, error)
}

func NewAnalyzeThread(mail threadGetter, cls threadClassifier, now func() time.Time) *AnalyzeThread {
	if now == nil {
		now = time.Now
	}
	return &AnalyzeThread{mail: mail, cls: cls, now: now}
}

type AnalyzeThread struct {
	mail threadGetter
	cls  threadClassifier
	now  func() time.Time
}

func (t *AnalyzeThread) AnalyzeThread(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AnalyzeThreadRequest,
) (*mcp.CallToolResult, AnalyzeThreadResponse, error) {
	if strings.TrimSpace(input.ThreadID) == "" {
		return nil, AnalyzeThreadResponse{}, fmt.Errorf("%w: thread_id is required", types.ErrValidation)
	}

	thread, err := t.mail.GetThread(ctx, input.ThreadID)
	if err != nil {
		return nil, AnalyzeThreadResponse{}, fmt.Errorf("mail.GetThread failed: %w", err)
	}

	analysis, err := t.cls.Classify(ctx, classifier.Request{
		Transcript:          thread.Transcript(),
		Subject:             thread.Subject,
		HasAttachmentSignal: thread.HasInviteSignal(),
		Today:               t.now(),
	})
	if err != nil {
		return nil, AnalyzeThreadResponse{}, fmt.Errorf("cls.Classify failed: %w", err)
	}

	return nil, AnalyzeThreadResponse{
		ThreadID:     thread.ID,
		Subject:      thread.Subject,
		MessageCount: len(thread.Messages),
		Analysis:     analysisFrom(analysis),
	}, nil
}
