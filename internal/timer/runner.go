package timer

import (
	"log/slog"
	"sync"
	"time"
)

// completionFunc is invoked when a countdown reaches zero, with the run's
// original start time and mode captured before the cycle transition.
type completionFunc func(start *time.Time, mode string)

// Runner drives one engine from a periodic ticker. It accumulates real
// elapsed wall time and advances the engine in whole-second steps, so the
// countdown stays correct even when tick delivery jitters or the process
// is suspended.
type Runner struct {
	engine     *Engine
	interval   time.Duration
	onComplete completionFunc

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewRunner(engine *Engine, interval time.Duration, onComplete completionFunc) *Runner {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Runner{
		engine:     engine,
		interval:   interval,
		onComplete: onComplete,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (r *Runner) Run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := time.Now()
	var carry time.Duration

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			carry += now.Sub(last)
			last = now

			whole := int(carry / time.Second)
			if whole == 0 {
				continue
			}
			carry -= time.Duration(whole) * time.Second

			snap := r.engine.Snapshot()
			if !snap.IsActive {
				continue
			}

			if r.engine.Tick(whole) > 0 {
				continue
			}

			// Countdown hit zero: capture the run before the cycle
			// transition clears its start time.
			finished := r.engine.Snapshot()
			r.engine.CompleteCycle()
			slog.Debug("countdown completed", "mode", finished.Mode)
			if r.onComplete != nil {
				r.onComplete(finished.SessionStart, finished.Mode)
			}
		}
	}
}

// Stop tears the loop down and waits for it to exit.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}
