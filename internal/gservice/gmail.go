// Package gservice wraps the Gmail and Calendar APIs behind the narrow
// operations the scheduler needs.
package gservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-scheduler/internal/auth"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

const gmailUserID = "me"

// Scopes are the OAuth scopes the scheduler needs.
var Scopes = []string{gmail.GmailModifyScope, calendar.CalendarEventsScope}

// NewGmail creates a Gmail client authorized by tok.
func NewGmail(cfg *oauth2.Config, tok *auth.Token, logger *zap.Logger) *Gmail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gmail{cfg: cfg, tok: tok, logger: logger}
}

// Gmail reads threads, sends replies and manages labels.
type Gmail struct {
	cfg    *oauth2.Config
	tok    *auth.Token
	logger *zap.Logger

	mu    sync.Mutex
	owner string
}

// OwnerEmail returns the authenticated mailbox address.
func (m *Gmail) OwnerEmail(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != "" {
		return m.owner, nil
	}

	svc, err := m.newSvc(ctx)
	if err != nil {
		return "", fmt.Errorf("newSvc failed: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUserID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("users.GetProfile failed: %w", err)
	}
	m.owner = profile.EmailAddress

	return m.owner, nil
}

// SearchUnread lists up to limit unread inbox thread ids newer than window.
func (m *Gmail) SearchUnread(ctx context.Context, limit int, window time.Duration) ([]string, error) {
	hours := int(math.Ceil(window.Hours()))
	if hours < 1 {
		hours = 1
	}
	return m.listThreads(ctx, fmt.Sprintf("is:unread in:inbox newer_than:%dh", hours), nil, limit)
}

// ThreadsWithLabel lists up to limit thread ids carrying labelID.
func (m *Gmail) ThreadsWithLabel(ctx context.Context, labelID string, limit int) ([]string, error) {
	return m.listThreads(ctx, "", []string{labelID}, limit)
}

func (m *Gmail) listThreads(ctx context.Context, q string, labelIDs []string, limit int) ([]string, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Users.Threads.List(gmailUserID).
		MaxResults(int64(limit)).
		Context(ctx)
	if q != "" {
		call = call.Q(q)
	}
	if len(labelIDs) > 0 {
		call = call.LabelIds(labelIDs...)
	}

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("threads.List failed: %w", err)
	}

	ids := make([]string, 0, len(result.Threads))
	for _, t := range result.Threads {
		ids = append(ids, t.Id)
	}
	return ids, nil
}

// GetThread fetches a full thread with bodies rendered as text.
func (m *Gmail) GetThread(ctx context.Context, threadID string) (*types.Thread, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	thread, err := svc.Users.Threads.Get(gmailUserID, threadID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("threads.Get failed: %w", err)
	}

	return convertThread(thread), nil
}

// SendReply replies in thread to the message with the given id.
func (m *Gmail) SendReply(ctx context.Context, thread *types.Thread, messageID, body string) error {
	var target *types.Message
	for i := range thread.Messages {
		if thread.Messages[i].ID == messageID {
			target = &thread.Messages[i]
		}
	}
	if target == nil {
		return fmt.Errorf("%w: message %s not in thread %s", types.ErrValidation, messageID, thread.ID)
	}

	owner, err := m.OwnerEmail(ctx)
	if err != nil {
		return fmt.Errorf("OwnerEmail failed: %w", err)
	}

	raw, err := ComposeReply(owner, *target, body, time.Now())
	if err != nil {
		return fmt.Errorf("ComposeReply failed: %w", err)
	}

	svc, err := m.newSvc(ctx)
	if err != nil {
		return fmt.Errorf("newSvc failed: %w", err)
	}

	sent, err := svc.Users.Messages.Send(gmailUserID, &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: thread.ID,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("messages.Send failed: %w", err)
	}

	m.logger.Info("reply sent", zap.String("thread_id", thread.ID), zap.String("message_id", sent.Id))
	return nil
}

// ListLabels returns user label ids keyed by name.
func (m *Gmail) ListLabels(ctx context.Context) (map[string]string, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	result, err := svc.Users.Labels.List(gmailUserID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("labels.List failed: %w", err)
	}

	labels := make(map[string]string, len(result.Labels))
	for _, l := range result.Labels {
		labels[l.Name] = l.Id
	}
	return labels, nil
}

// CreateLabel creates a user label and returns its id.
func (m *Gmail) CreateLabel(ctx context.Context, name string) (string, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return "", fmt.Errorf("newSvc failed: %w", err)
	}

	label, err := svc.Users.Labels.Create(gmailUserID, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("labels.Create failed: %w", err)
	}
	return label.Id, nil
}

// ModifyThreadLabels adds and removes label ids on every message of a thread.
func (m *Gmail) ModifyThreadLabels(ctx context.Context, threadID string, add, remove []string) error {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return fmt.Errorf("newSvc failed: %w", err)
	}

	_, err = svc.Users.Threads.Modify(gmailUserID, threadID, &gmail.ModifyThreadRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("threads.Modify failed: %w", err)
	}
	return nil
}

// ThreadLabelIDs returns the union of label ids on a thread's messages.
func (m *Gmail) ThreadLabelIDs(ctx context.Context, threadID string) ([]string, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	thread, err := svc.Users.Threads.Get(gmailUserID, threadID).
		Format("minimal").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("threads.Get failed: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, msg := range thread.Messages {
		for _, id := range msg.LabelIds {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (m *Gmail) newSvc(ctx context.Context) (*gmail.Service, error) {
	clt, err := httpClient(ctx, m.cfg, m.tok)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}
