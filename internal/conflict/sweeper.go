package conflict

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper periodically runs a full detection pass and notifies conflicts that
// were never notified before.
type Sweeper struct {
	mu       sync.RWMutex
	detector *Detector
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSweeper(d *Detector, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		detector: d,
		interval: interval,
		logger:   logger.With("component", "conflict_sweeper"),
	}
}

// Start begins the sweep loop. The first sweep runs immediately.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.detector.NotifyNew(ctx)
	if err != nil {
		s.logger.Error("conflict sweep failed", "error", err)
		return
	}
	s.logger.Debug("conflict sweep done", "notified", n, "took", time.Since(start))
}
