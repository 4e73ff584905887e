// Package availability turns a busy-event calendar into bookable free slots
// and checks proposed times for conflicts.
package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type calendarSvc interface {
	ListBusyEvents(ctx context.Context, start, end time.Time) ([]types.BusyEvent, error)
}

// Options bounds the availability search.
type Options struct {
	HorizonDays       int
	OpenHour          int
	CloseHour         int
	SameDayCutoffHour int
	MaxSlotSpan       time.Duration
	// Timezone is used to read proposed times that carry no offset.
	Timezone string
}

// DefaultOptions returns the standard business-hours search bounds.
func DefaultOptions() Options {
	return Options{
		HorizonDays:       21,
		OpenHour:          9,
		CloseHour:         17,
		SameDayCutoffHour: 15,
		MaxSlotSpan:       3 * time.Hour,
		Timezone:          "UTC",
	}
}

// NewEngine creates an availability engine over the given calendar.
func NewEngine(cal calendarSvc, opts Options, logger *zap.Logger) *Engine {
	def := DefaultOptions()
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = def.HorizonDays
	}
	if opts.CloseHour <= opts.OpenHour {
		opts.OpenHour, opts.CloseHour = def.OpenHour, def.CloseHour
	}
	if opts.SameDayCutoffHour <= 0 {
		opts.SameDayCutoffHour = def.SameDayCutoffHour
	}
	if opts.MaxSlotSpan <= 0 {
		opts.MaxSlotSpan = def.MaxSlotSpan
	}
	if opts.Timezone == "" {
		opts.Timezone = def.Timezone
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cal: cal, opts: opts, logger: logger}
}

// Engine computes availability against a calendar.
type Engine struct {
	cal    calendarSvc
	opts   Options
	logger *zap.Logger
}

// FindFreeSlots returns up to targetCount weekday business-hour slots of at
// least durationMinutes, in day and time order. An empty result is not an
// error.
func (e *Engine) FindFreeSlots(
	ctx context.Context,
	durationMinutes, targetCount int,
	now time.Time,
	timezone string,
) ([]types.FreeSlot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", types.ErrValidation, durationMinutes)
	}
	loc, err := e.location(timezone)
	if err != nil {
		return nil, err
	}

	slots := make([]types.FreeSlot, 0, max(targetCount, 0))
	if targetCount <= 0 {
		return slots, nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	local := now.In(loc)
	y, m, d := local.Date()

	for offset := 0; offset < e.opts.HorizonDays && len(slots) < targetCount; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if offset == 0 && local.Hour() >= e.opts.SameDayCutoffHour {
			continue
		}

		open := time.Date(day.Year(), day.Month(), day.Day(), e.opts.OpenHour, 0, 0, 0, loc)
		closing := time.Date(day.Year(), day.Month(), day.Day(), e.opts.CloseHour, 0, 0, 0, loc)
		if !now.Before(closing) {
			continue
		}
		start := open
		if now.After(start) {
			start = now
		}

		events, err := e.cal.ListBusyEvents(ctx, open, closing)
		if err != nil {
			return nil, fmt.Errorf("calendar.ListBusyEvents failed for %s: %w", day.Format(time.DateOnly), err)
		}

		for _, s := range e.daySlots(blocking(events), start, closing, duration, loc) {
			slots = append(slots, s)
			if len(slots) == targetCount {
				break
			}
		}
	}

	e.logger.Debug("free slots computed",
		zap.Int("duration_minutes", durationMinutes),
		zap.Int("requested", targetCount),
		zap.Int("found", len(slots)),
		zap.String("timezone", loc.String()),
	)

	return slots, nil
}

// daySlots walks the sorted events of one day and reports every qualifying gap.
func (e *Engine) daySlots(events []types.BusyEvent, start, closing time.Time, duration time.Duration, loc *time.Location) []types.FreeSlot {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	var slots []types.FreeSlot
	gap := func(from, to time.Time) {
		if to.After(closing) {
			to = closing
		}
		length := to.Sub(from)
		if length < duration {
			return
		}
		span := min(length, max(e.opts.MaxSlotSpan, duration))
		end := from.Add(span)
		slots = append(slots, types.FreeSlot{
			Start:       from,
			End:         end,
			DisplayText: SlotText(from.In(loc), end.In(loc)),
		})
	}

	cursor := start
	for _, ev := range events {
		if !ev.End.After(cursor) {
			continue
		}
		if ev.Start.After(cursor) {
			gap(cursor, ev.Start)
		}
		cursor = ev.End
		if !cursor.Before(closing) {
			return slots
		}
	}
	gap(cursor, closing)

	return slots
}

// CheckProposedTimes annotates each candidate with its conflict state.
// Candidates without a parseable start are unknown and never queried.
func (e *Engine) CheckProposedTimes(
	ctx context.Context,
	candidates []types.ProposedTime,
	durationMinutes int,
) ([]types.ProposedTimeCheck, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", types.ErrValidation, durationMinutes)
	}
	loc, err := e.location("")
	if err != nil {
		return nil, err
	}
	duration := time.Duration(durationMinutes) * time.Minute

	checks := make([]types.ProposedTimeCheck, 0, len(candidates))
	for _, c := range candidates {
		check := types.ProposedTimeCheck{ProposedTime: c}

		start, ok := types.ParseISO(c.StartISO, loc)
		if !ok {
			check.ConflictState = types.ConflictUnknown
			check.Label = LabelFor(types.ConflictUnknown)
			checks = append(checks, check)
			continue
		}
		end := start.Add(duration)

		events, err := e.cal.ListBusyEvents(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("calendar.ListBusyEvents failed for %s: %w", c.StartISO, err)
		}

		check.ConflictState = types.ConflictFree
		for _, ev := range blocking(events) {
			if ev.Overlaps(start, end) {
				check.ConflictState = types.ConflictBusy
				break
			}
		}
		check.Label = LabelFor(check.ConflictState)
		checks = append(checks, check)
	}

	return checks, nil
}

func (e *Engine) location(timezone string) (*time.Location, error) {
	if timezone == "" {
		timezone = e.opts.Timezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", types.ErrValidation, timezone)
	}
	return loc, nil
}

func blocking(events []types.BusyEvent) []types.BusyEvent {
	out := make([]types.BusyEvent, 0, len(events))
	for _, ev := range events {
		if ev.Blocks() {
			out = append(out, ev)
		}
	}
	return out
}

// LabelFor returns the short label shown next to a checked time.
func LabelFor(state types.ConflictState) string {
	switch state {
	case types.ConflictFree:
		return "Available"
	case types.ConflictBusy:
		return "Conflict"
	default:
		return "Could not verify"
	}
}

// SlotText renders a slot for humans, e.g. "Mon Oct 19, 10:00 AM - 1:00 PM EDT".
func SlotText(start, end time.Time) string {
	if start.YearDay() != end.YearDay() || start.Year() != end.Year() {
		return start.Format("Mon Jan 2, 3:04 PM") + " - " + end.Format("Mon Jan 2, 3:04 PM MST")
	}
	return start.Format("Mon Jan 2, 3:04 PM") + " - " + end.Format("3:04 PM MST")
}
