package autoprocess

import (
	"context"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/reply"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// capture classifies unread threads not seen before and answers inbound
// meeting requests with free slots.
func (p *Processor) capture(ctx context.Context, r *run) {
	ids, err := p.deps.Mailbox.SearchUnread(ctx, p.opts.CaptureMaxThreads, p.opts.CaptureWindow)
	if err != nil {
		r.logger.Error("unread search failed", zap.Error(err))
		r.report.Failures++
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if r.ledger.Contains(id) {
			continue
		}
		r.report.add(p.captureThread(ctx, r, id))
	}
}

func (p *Processor) captureThread(ctx context.Context, r *run, id string) Outcome {
	log := r.logger.With(zap.String("thread_id", id), zap.String("pass", string(PassCapture)))
	out := Outcome{ThreadID: id, Pass: PassCapture, Action: ActionNone}
	fail := func(msg string, err error) Outcome {
		log.Warn(msg, zap.Error(err))
		out.Action = ActionFailed
		out.Error = err.Error()
		return out
	}

	thread, err := p.deps.Mailbox.GetThread(ctx, id)
	if err != nil {
		return fail("thread fetch failed", err)
	}

	analysis, err := p.deps.Classifier.Classify(ctx, classifier.Request{
		Transcript:          thread.Transcript(),
		Subject:             thread.Subject,
		HasAttachmentSignal: thread.HasInviteSignal(),
		Today:               r.now,
	})
	if err != nil {
		return fail("classification failed", err)
	}
	out.Status = analysis.Status.String()

	r.ledger.MarkProcessed(id)
	if err := r.ledger.Save(ctx, p.deps.Ledger); err != nil {
		return fail("ledger save failed", err)
	}
	r.report.Captured++

	switch analysis.Status {
	case types.StatusInboundRequest:
		return p.offerSlots(ctx, r, log, thread, analysis, out)
	case types.StatusNotScheduling,
		types.StatusNoAgreement,
		types.StatusUserPromisedTimes,
		types.StatusAwaitingResponse,
		types.StatusAgreementReached,
		types.StatusAlreadyScheduled:
		log.Debug("captured without action", zap.String("status", out.Status))
		return out
	default:
		log.Warn("unknown status", zap.String("status", out.Status))
		return out
	}
}

func (p *Processor) offerSlots(
	ctx context.Context,
	r *run,
	log *zap.Logger,
	thread *types.Thread,
	analysis *types.ThreadAnalysis,
	out Outcome,
) Outcome {
	fail := func(msg string, err error) Outcome {
		log.Warn(msg, zap.Error(err))
		out.Action = ActionFailed
		out.Error = err.Error()
		return out
	}

	duration := analysis.DurationMinutes
	if duration <= 0 {
		duration = p.opts.DefaultDuration
	}

	slots, err := p.deps.Slots.FindFreeSlots(ctx, duration, p.opts.SlotCount, r.now, p.opts.Timezone)
	if err != nil {
		return fail("free slot search failed", err)
	}
	if len(slots) == 0 {
		log.Info("no free slots to offer")
		out.Action = ActionNoSlots
		return out
	}

	target, ok := thread.LastFromOthers(r.owner)
	if !ok {
		log.Info("no counterpart message to answer")
		return out
	}
	recipient := target.ReplyTo
	if recipient == "" {
		recipient = target.From
	}

	body := reply.Availability(recipient, slots, r.settings.SignOffName)
	if err := p.deps.Mailbox.SendReply(ctx, thread, target.ID, body); err != nil {
		return fail("availability reply failed", err)
	}
	r.report.Replied++

	if err := p.deps.Labels.AddMarker(ctx, thread.ID, types.MarkerAwaiting); err != nil {
		return fail("awaiting marker not set", err)
	}

	log.Info("availability offered", zap.Int("slots", len(slots)))
	out.Action = ActionReplied
	return out
}
