package tool_test

import (
	"context"
	"time"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/invite"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type slotsMock struct {
	FindFreeSlotsFunc      func(ctx context.Context, durationMinutes, targetCount int, now time.Time, timezone string) ([]types.FreeSlot, error)
	CheckProposedTimesFunc func(ctx context.Context, candidates []types.ProposedTime, durationMinutes int) ([]types.ProposedTimeCheck, error)
}

func (m *slotsMock) FindFreeSlots(ctx context.Context, durationMinutes, targetCount int, now time.Time, timezone string) ([]types.FreeSlot, error) {
	return m.FindFreeSlotsFunc(ctx, durationMinutes, targetCount, now, timezone)
}

func (m *slotsMock) CheckProposedTimes(ctx context.Context, candidates []types.ProposedTime, durationMinutes int) ([]types.ProposedTimeCheck, error) {
	return m.CheckProposedTimesFunc(ctx, candidates, durationMinutes)
}

type interpreterMock struct {
	InterpretFunc func(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error)
}

func (m *interpreterMock) Interpret(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error) {
	return m.InterpretFunc(ctx, text, candidates)
}

type inviteMock struct {
	CheckExistingInviteFunc func(ctx context.Context, analysis *types.ThreadAnalysis) types.InviteCheckResult
}

func (m *inviteMock) CheckExistingInvite(ctx context.Context, analysis *types.ThreadAnalysis) types.InviteCheckResult {
	return m.CheckExistingInviteFunc(ctx, analysis)
}

type bookerMock struct {
	BookFunc func(ctx context.Context, analysis *types.ThreadAnalysis) (invite.BookResult, error)
}

func (m *bookerMock) Book(ctx context.Context, analysis *types.ThreadAnalysis) (invite.BookResult, error) {
	return m.BookFunc(ctx, analysis)
}

type mailMock struct {
	OwnerEmailFunc func(ctx context.Context) (string, error)
	GetThreadFunc  func(ctx context.Context, threadID string) (*types.Thread, error)
	SendReplyFunc  func(ctx context.Context, thread *types.Thread, messageID, body string) error

	sendCalls int
}

func (m *mailMock) OwnerEmail(ctx context.Context) (string, error) {
	return m.OwnerEmailFunc(ctx)
}

func (m *mailMock) GetThread(ctx context.Context, threadID string) (*types.Thread, error) {
	return m.GetThreadFunc(ctx, threadID)
}

func (m *mailMock) SendReply(ctx context.Context, thread *types.Thread, messageID, body string) error {
	m.sendCalls++
	return m.SendReplyFunc(ctx, thread, messageID, body)
}

type classifierMock struct {
	ClassifyFunc func(ctx context.Context, req classifier.Request) (*types.ThreadAnalysis, error)
}

func (m *classifierMock) Classify(ctx context.Context, req classifier.Request) (*types.ThreadAnalysis, error) {
	return m.ClassifyFunc(ctx, req)
}

type autoMock struct {
	RunFunc func(ctx context.Context) (autoprocess.Report, error)
}

func (m *autoMock) Run(ctx context.Context) (autoprocess.Report, error) {
	return m.RunFunc(ctx)
}
