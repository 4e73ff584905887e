// Package autoprocess runs unattended scheduling: it answers new meeting
// requests with free slots and books meetings once the other side agrees.
package autoprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/db"
	"github.com/hal9000y/gmail-scheduler/internal/invite"
	"github.com/hal9000y/gmail-scheduler/internal/labels"
	"github.com/hal9000y/gmail-scheduler/internal/ledger"
	"github.com/hal9000y/gmail-scheduler/internal/lock"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type mailbox interface {
	OwnerEmail(ctx context.Context) (string, error)
	SearchUnread(ctx context.Context, limit int, window time.Duration) ([]string, error)
	GetThread(ctx context.Context, threadID string) (*types.Thread, error)
	SendReply(ctx context.Context, thread *types.Thread, messageID, body string) error
}

type threadClassifier interface {
	Classify(ctx context.Context, req classifier.Request) (*types.ThreadAnalysis, error)
}

type slotFinder interface {
	FindFreeSlots(ctx context.Context, durationMinutes, targetCount int, now time.Time, timezone string) ([]types.FreeSlot, error)
}

type meetingBooker interface {
	Book(ctx context.Context, analysis *types.ThreadAnalysis) (invite.BookResult, error)
}

type settingsSource interface {
	Load(ctx context.Context) (types.Settings, error)
}

type runRecorder interface {
	RecordRun(ctx context.Context, r db.Run) error
}

// Deps are the collaborators of a Processor. Recorder may be nil.
type Deps struct {
	Settings   settingsSource
	Lock       lock.Locker
	Mailbox    mailbox
	Classifier threadClassifier
	Slots      slotFinder
	Booker     meetingBooker
	Labels     labels.Store
	Ledger     ledger.Store
	Recorder   runRecorder
}

// Options bounds one invocation.
type Options struct {
	CaptureMaxThreads    int
	CaptureWindow        time.Duration
	ResolutionMaxThreads int
	LedgerCapacity       int
	LockWait             time.Duration
	SlotCount            int
	DefaultDuration      int
	Timezone             string
	Now                  func() time.Time
}

// DefaultOptions returns the standard invocation bounds.
func DefaultOptions() Options {
	return Options{
		CaptureMaxThreads:    20,
		CaptureWindow:        72 * time.Hour,
		ResolutionMaxThreads: 30,
		LedgerCapacity:       ledger.DefaultCapacity,
		LockWait:             3 * time.Second,
		SlotCount:            3,
		DefaultDuration:      30,
		Timezone:             "UTC",
		Now:                  time.Now,
	}
}

// New creates a Processor. Zero option fields take their defaults.
func New(deps Deps, opts Options, logger *zap.Logger) (*Processor, error) {
	if deps.Settings == nil || deps.Lock == nil || deps.Mailbox == nil || deps.Classifier == nil ||
		deps.Slots == nil || deps.Booker == nil || deps.Labels == nil || deps.Ledger == nil {
		return nil, fmt.Errorf("%w: auto processor is missing a collaborator", types.ErrConfiguration)
	}

	def := DefaultOptions()
	if opts.CaptureMaxThreads <= 0 {
		opts.CaptureMaxThreads = def.CaptureMaxThreads
	}
	if opts.CaptureWindow <= 0 {
		opts.CaptureWindow = def.CaptureWindow
	}
	if opts.ResolutionMaxThreads <= 0 {
		opts.ResolutionMaxThreads = def.ResolutionMaxThreads
	}
	if opts.LedgerCapacity <= 0 {
		opts.LedgerCapacity = def.LedgerCapacity
	}
	if opts.LockWait <= 0 {
		opts.LockWait = def.LockWait
	}
	if opts.SlotCount <= 0 {
		opts.SlotCount = def.SlotCount
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = def.DefaultDuration
	}
	if opts.Timezone == "" {
		opts.Timezone = def.Timezone
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{deps: deps, opts: opts, logger: logger}, nil
}

// Processor runs auto-processing invocations.
type Processor struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// run carries the state of one invocation.
type run struct {
	id       string
	now      time.Time
	owner    string
	settings types.Settings
	ledger   *ledger.Ledger
	report   *Report
	logger   *zap.Logger
}

// Run performs one invocation: a capture pass over unread threads followed
// by a resolution pass over threads awaiting an answer. Per-thread failures
// are logged and counted, never returned.
func (p *Processor) Run(ctx context.Context) (Report, error) {
	release, err := p.deps.Lock.Acquire(ctx, p.opts.LockWait)
	if err != nil {
		return Report{}, err
	}
	defer release()

	settings, err := p.deps.Settings.Load(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("settings.Load failed: %w", err)
	}
	if !settings.AutoModeEnabled {
		p.logger.Debug("auto mode disabled, skipping run")
		return Report{Skipped: true}, nil
	}

	r := &run{
		id:       uuid.NewString(),
		now:      p.opts.Now(),
		settings: settings,
		report:   &Report{},
	}
	r.report.RunID = r.id
	r.report.StartedAt = r.now
	r.logger = p.logger.With(zap.String("run_id", r.id))

	runErr := p.prepare(ctx, r)
	if runErr == nil {
		p.capture(ctx, r)
		p.resolve(ctx, r)
	}
	r.report.FinishedAt = p.opts.Now()

	p.record(ctx, r, runErr)

	r.logger.Info("auto process finished",
		zap.Int("captured", r.report.Captured),
		zap.Int("replied", r.report.Replied),
		zap.Int("resolved", r.report.Resolved),
		zap.Int("scheduled", r.report.Scheduled),
		zap.Int("failures", r.report.Failures),
	)

	if runErr != nil {
		return *r.report, runErr
	}
	return *r.report, nil
}

func (p *Processor) prepare(ctx context.Context, r *run) error {
	owner, err := p.deps.Mailbox.OwnerEmail(ctx)
	if err != nil {
		return fmt.Errorf("mailbox.OwnerEmail failed: %w", err)
	}
	r.owner = owner

	led, err := ledger.Load(ctx, p.deps.Ledger, p.opts.LedgerCapacity)
	if err != nil {
		return fmt.Errorf("ledger.Load failed: %w", err)
	}
	r.ledger = led

	return nil
}

func (p *Processor) record(ctx context.Context, r *run, runErr error) {
	if p.deps.Recorder == nil {
		return
	}

	rec := db.Run{
		ID:         r.id,
		StartedAt:  r.report.StartedAt,
		FinishedAt: r.report.FinishedAt,
		Captured:   r.report.Captured,
		Replied:    r.report.Replied,
		Resolved:   r.report.Resolved,
		Scheduled:  r.report.Scheduled,
		Failures:   r.report.Failures,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := p.deps.Recorder.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("run history not recorded", zap.Error(err))
	}
}
