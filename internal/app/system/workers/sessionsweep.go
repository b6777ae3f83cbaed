// internal/app/system/workers/sessionsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"go.uber.org/zap"
)

// Pruner drops expired in-memory state, such as rate limit windows.
type Pruner interface {
	Prune() int
}

// SessionSweeper periodically ends dashboard sessions that have gone idle,
// releasing their tab caches.
type SessionSweeper struct {
	registry *dashsession.Registry
	log      *zap.Logger
	interval time.Duration
	idle     time.Duration
	pruners  []Pruner
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSessionSweeper creates a sweeper that runs every interval and ends
// sessions not seen for idle.
func NewSessionSweeper(reg *dashsession.Registry, logger *zap.Logger, interval, idle time.Duration) *SessionSweeper {
	return &SessionSweeper{
		registry: reg,
		log:      logger,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// AlsoPrune adds p to every sweep. Call before Start.
func (w *SessionSweeper) AlsoPrune(p Pruner) {
	w.pruners = append(w.pruners, p)
}

// Start begins the background loop.
func (w *SessionSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("dashboard session sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle", w.idle))
}

// Stop signals the loop to exit and waits for it.
func (w *SessionSweeper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("dashboard session sweeper stopped")
}

func (w *SessionSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SessionSweeper) sweep() {
	if n := w.registry.Sweep(context.Background(), w.idle); n > 0 {
		w.log.Info("ended idle dashboard sessions", zap.Int("count", n))
	}
	for _, p := range w.pruners {
		p.Prune()
	}
}
