package invite

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// defaultTitle is used when the classifier produced no meeting title.
const defaultTitle = "Meeting"

type eventCreator interface {
	CreateEvent(ctx context.Context, title string, start, end time.Time, guests []string) (string, error)
}

type existingChecker interface {
	CheckExistingInvite(ctx context.Context, analysis *types.ThreadAnalysis) types.InviteCheckResult
}

// BookResult describes the outcome of a booking attempt.
type BookResult struct {
	EventRef string                  `json:"event_ref,omitempty"`
	Created  bool                    `json:"created"`
	Existing types.InviteCheckResult `json:"existing"`
}

// NewBooker creates a booker that never double-books.
func NewBooker(detector existingChecker, cal eventCreator, owner ownerSource, logger *zap.Logger) *Booker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Booker{detector: detector, cal: cal, owner: owner, logger: logger}
}

// Booker creates calendar invites for agreed meetings.
type Booker struct {
	detector existingChecker
	cal      eventCreator
	owner    ownerSource
	logger   *zap.Logger
}

// Book creates an event for the agreed time unless one already exists.
func (b *Booker) Book(ctx context.Context, analysis *types.ThreadAnalysis) (BookResult, error) {
	if analysis == nil || analysis.AgreedTime == nil {
		return BookResult{}, fmt.Errorf("%w: no agreed time to book", types.ErrValidation)
	}
	start, end, err := analysis.AgreedTime.Bounds()
	if err != nil {
		return BookResult{}, fmt.Errorf("%w: %v", types.ErrValidation, err)
	}

	existing := b.detector.CheckExistingInvite(ctx, analysis)
	if existing.AlreadyScheduled {
		b.logger.Info("meeting already booked",
			zap.String("method", string(existing.Method)),
			zap.String("event_ref", existing.EventRef),
		)
		return BookResult{EventRef: existing.EventRef, Existing: existing}, nil
	}

	owner, err := b.owner.OwnerEmail(ctx)
	if err != nil {
		return BookResult{}, fmt.Errorf("owner.OwnerEmail failed: %w", err)
	}

	title := analysis.MeetingTitle
	if title == "" {
		title = defaultTitle
	}
	ref, err := b.cal.CreateEvent(ctx, title, start, end, analysis.Participants(owner))
	if err != nil {
		return BookResult{}, fmt.Errorf("calendar.CreateEvent failed: %w", err)
	}

	b.logger.Info("meeting booked", zap.String("event_ref", ref), zap.Time("start", start))

	return BookResult{EventRef: ref, Created: true, Existing: existing}, nil
}
