// Package scheduler repeats auto-processing invocations on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type runner interface {
	Run(ctx context.Context) (autoprocess.Report, error)
}

// NewDaemon creates a daemon that invokes r every interval. onReport, when
// not nil, receives every completed report.
func NewDaemon(r runner, interval time.Duration, onReport func(autoprocess.Report), logger *zap.Logger) (*Daemon, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be positive", types.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Daemon{runner: r, interval: interval, onReport: onReport, logger: logger}, nil
}

// Daemon drives periodic invocations.
type Daemon struct {
	runner   runner
	interval time.Duration
	onReport func(autoprocess.Report)
	logger   *zap.Logger
}

// Run invokes immediately and then on every tick until ctx is done.
// Invocation errors are logged; the loop keeps going.
func (d *Daemon) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("daemon started", zap.Duration("interval", d.interval))
	d.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return nil
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Daemon) tick(ctx context.Context) {
	report, err := d.runner.Run(ctx)
	switch {
	case errors.Is(err, types.ErrRunInProgress):
		d.logger.Info("previous invocation still running, skipping tick")
		return
	case ctx.Err() != nil:
		return
	case err != nil:
		d.logger.Error("auto process failed", zap.Error(err))
		return
	}
	if d.onReport != nil && !report.Skipped {
		d.onReport(report)
	}
}
