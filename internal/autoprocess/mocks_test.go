package autoprocess_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/db"
	"github.com/hal9000y/gmail-scheduler/internal/invite"
	"github.com/hal9000y/gmail-scheduler/internal/labels"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

const owner = "me@example.com"

var errNotFound = errors.New("404 not found")

type settingsMock struct {
	LoadFunc func(ctx context.Context) (types.Settings, error)
	calls    int
}

func (m *settingsMock) Load(ctx context.Context) (types.Settings, error) {
	m.calls++
	return m.LoadFunc(ctx)
}

type sentReply struct {
	ThreadID  string
	MessageID string
	Body      string
}

type mailboxMock struct {
	mu sync.Mutex

	OwnerEmailFunc   func(ctx context.Context) (string, error)
	SearchUnreadFunc func(ctx context.Context, limit int, window time.Duration) ([]string, error)
	GetThreadFunc    func(ctx context.Context, threadID string) (*types.Thread, error)
	SendReplyFunc    func(ctx context.Context, thread *types.Thread, messageID, body string) error

	calls int
	sent  []sentReply
}

func (m *mailboxMock) OwnerEmail(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.OwnerEmailFunc(ctx)
}

func (m *mailboxMock) SearchUnread(ctx context.Context, limit int, window time.Duration) ([]string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.SearchUnreadFunc(ctx, limit, window)
}

func (m *mailboxMock) GetThread(ctx context.Context, threadID string) (*types.Thread, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.GetThreadFunc(ctx, threadID)
}

func (m *mailboxMock) SendReply(ctx context.Context, thread *types.Thread, messageID, body string) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := m.SendReplyFunc(ctx, thread, messageID, body); err != nil {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, sentReply{ThreadID: thread.ID, MessageID: messageID, Body: body})
	m.mu.Unlock()
	return nil
}

type classifierMock struct {
	ClassifyFunc func(ctx context.Context, req classifier.Request) (*types.ThreadAnalysis, error)
	calls        int
}

func (m *classifierMock) Classify(ctx context.Context, req classifier.Request) (*types.ThreadAnalysis, error) {
	m.calls++
	return m.ClassifyFunc(ctx, req)
}

type slotsMock struct {
	FindFreeSlotsFunc func(ctx context.Context, durationMinutes, targetCount int, now time.Time, timezone string) ([]types.FreeSlot, error)
	calls             int
}

func (m *slotsMock) FindFreeSlots(ctx context.Context, durationMinutes, targetCount int, now time.Time, timezone string) ([]types.FreeSlot, error) {
	m.calls++
	return m.FindFreeSlotsFunc(ctx, durationMinutes, targetCount, now, timezone)
}

type bookerMock struct {
	BookFunc func(ctx context.Context, analysis *types.ThreadAnalysis) (invite.BookResult, error)
	calls    int
}

func (m *bookerMock) Book(ctx context.Context, analysis *types.ThreadAnalysis) (invite.BookResult, error) {
	m.calls++
	return m.BookFunc(ctx, analysis)
}

type ledgerStoreMock struct {
	ids            []string
	SaveLedgerFunc func(ctx context.Context, ids []string) error
	calls          int
}

func (m *ledgerStoreMock) LoadLedger(context.Context) ([]string, error) {
	m.calls++
	return append([]string(nil), m.ids...), nil
}

func (m *ledgerStoreMock) SaveLedger(ctx context.Context, ids []string) error {
	m.calls++
	if m.SaveLedgerFunc != nil {
		if err := m.SaveLedgerFunc(ctx, ids); err != nil {
			return err
		}
	}
	m.ids = append([]string(nil), ids...)
	return nil
}

type recorderMock struct {
	runs []db.Run
}

func (m *recorderMock) RecordRun(_ context.Context, r db.Run) error {
	m.runs = append(m.runs, r)
	return nil
}

// countingLabels counts calls made to an in-memory label store.
type countingLabels struct {
	*labels.Memory
	calls int
}

func (c *countingLabels) Markers(ctx context.Context, threadID string) ([]types.Marker, error) {
	c.calls++
	return c.Memory.Markers(ctx, threadID)
}

func (c *countingLabels) AddMarker(ctx context.Context, threadID string, m types.Marker) error {
	c.calls++
	return c.Memory.AddMarker(ctx, threadID, m)
}

func (c *countingLabels) RemoveMarker(ctx context.Context, threadID string, m types.Marker) error {
	c.calls++
	return c.Memory.RemoveMarker(ctx, threadID, m)
}

func (c *countingLabels) ThreadsWithMarker(ctx context.Context, m types.Marker, limit int) ([]string, error) {
	c.calls++
	return c.Memory.ThreadsWithMarker(ctx, m, limit)
}
