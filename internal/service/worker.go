package service

import (
	"context"
	"time"

	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// Sweeper is what the worker runs on every tick.
type Sweeper interface {
	Sweep(ctx context.Context, limit int) (int, error)
}

// Worker periodically sweeps recent campaigns for drifted counts.
type Worker struct {
	Sweeper  Sweeper
	Interval time.Duration
	Limit    int
	Log      logger.Logger
}

// Constructor
func NewWorker(sweeper Sweeper, interval time.Duration, limit int, log logger.Logger) *Worker {
	return &Worker{
		Sweeper:  sweeper,
		Interval: interval,
		Limit:    limit,
		Log:      log,
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	fixed, err := w.Sweeper.Sweep(ctx, w.Limit)
	if err != nil {
		w.Log.Error("sweep failed", map[string]interface{}{"error": err})
		return
	}
	w.Log.Debug("sweep finished", map[string]interface{}{"fixed": fixed})
}
