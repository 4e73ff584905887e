package autoprocess

import (
	"context"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// resolve revisits threads awaiting an answer and books, closes or flags
// them once the counterpart replied.
func (p *Processor) resolve(ctx context.Context, r *run) {
	ids, err := p.deps.Labels.ThreadsWithMarker(ctx, types.MarkerAwaiting, p.opts.ResolutionMaxThreads)
	if err != nil {
		r.logger.Error("awaiting thread scan failed", zap.Error(err))
		r.report.Failures++
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		r.report.add(p.resolveThread(ctx, r, id))
	}
}

func (p *Processor) resolveThread(ctx context.Context, r *run, id string) Outcome {
	log := r.logger.With(zap.String("thread_id", id), zap.String("pass", string(PassResolution)))
	out := Outcome{ThreadID: id, Pass: PassResolution, Action: ActionNone}
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
	if !thread.CounterpartReplied(r.owner) {
		out.Action = ActionWaiting
		return out
	}
	r.report.Resolved++

	if err := p.deps.Labels.RemoveMarker(ctx, id, types.MarkerAwaiting); err != nil {
		return fail("awaiting marker not removed", err)
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

	switch analysis.Status {
	case types.StatusAgreementReached:
		if _, _, err := analysis.AgreedTime.Bounds(); err != nil {
			log.Info("agreement without usable bounds", zap.Error(err))
			return p.followUp(ctx, r, log, out)
		}
		res, err := p.deps.Booker.Book(ctx, analysis)
		if err != nil {
			return fail("booking failed", err)
		}
		out.EventRef = res.EventRef
		if err := p.clearMarkers(ctx, id); err != nil {
			return fail("prior markers not cleared", err)
		}
		return p.scheduled(ctx, r, log, out)
	case types.StatusAlreadyScheduled:
		return p.scheduled(ctx, r, log, out)
	case types.StatusNotScheduling,
		types.StatusInboundRequest,
		types.StatusNoAgreement,
		types.StatusUserPromisedTimes,
		types.StatusAwaitingResponse:
		return p.followUp(ctx, r, log, out)
	default:
		log.Warn("unknown status", zap.String("status", out.Status))
		return p.followUp(ctx, r, log, out)
	}
}

func (p *Processor) scheduled(ctx context.Context, r *run, log *zap.Logger, out Outcome) Outcome {
	if err := p.deps.Labels.AddMarker(ctx, out.ThreadID, types.MarkerScheduled); err != nil {
		log.Warn("scheduled marker not set", zap.Error(err))
		out.Action = ActionFailed
		out.Error = err.Error()
		return out
	}
	r.report.Scheduled++
	log.Info("thread scheduled", zap.String("event_ref", out.EventRef))
	out.Action = ActionScheduled
	return out
}

func (p *Processor) followUp(ctx context.Context, r *run, log *zap.Logger, out Outcome) Outcome {
	if err := p.deps.Labels.AddMarker(ctx, out.ThreadID, types.MarkerNeedsFollowUp); err != nil {
		log.Warn("follow-up marker not set", zap.Error(err))
		out.Action = ActionFailed
		out.Error = err.Error()
		return out
	}
	r.report.FollowUps++
	log.Info("thread needs follow-up", zap.String("status", out.Status))
	out.Action = ActionFollowUp
	return out
}

func (p *Processor) clearMarkers(ctx context.Context, id string) error {
	markers, err := p.deps.Labels.Markers(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range markers {
		if err := p.deps.Labels.RemoveMarker(ctx, id, m); err != nil {
			return err
		}
	}
	return nil
}
