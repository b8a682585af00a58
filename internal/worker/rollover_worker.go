package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/logger"
)

// StreakChecker is the slice of the progression service the rollover worker
// drives.
type StreakChecker interface {
	CheckAndUpdateStreak(ctx context.Context) (*domain.StreakResult, error)
}

// RolloverWorker re-evaluates the streak at local midnight so a running
// process observes the day boundary without waiting for client traffic.
type RolloverWorker struct {
	service  StreakChecker
	timer    *time.Timer
	shutdown chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewRolloverWorker creates a new RolloverWorker
func NewRolloverWorker(service StreakChecker) *RolloverWorker {
	return &RolloverWorker{
		service:  service,
		shutdown: make(chan struct{}),
	}
}

// Start schedules the first rollover
func (w *RolloverWorker) Start() {
	w.scheduleNext()
}

// scheduleNext calculates the time until local midnight and schedules the rollover
func (w *RolloverWorker) scheduleNext() {
	duration := timeUntilNextRollover()
	log := logger.FromContext(context.Background())

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}

	// Two-stage scheduling to prevent tight-loop rescheduling caused by
	// early timer triggers
	if duration > 1*time.Hour {
		// Stage 1: long-range standby, wake 45 minutes before midnight
		waitDuration := duration - 45*time.Minute
		w.timer = time.AfterFunc(waitDuration, func() {
			w.scheduleNext()
		})
		w.mu.Unlock()

		log.Info(LogMsgRolloverStandby, "next_check_at", time.Now().Add(waitDuration))
		return
	}

	// Stage 2: final approach, schedule the actual rollover
	w.timer = time.AfterFunc(duration, func() {
		select {
		case <-w.shutdown:
			return
		default:
		}

		// If the timer fired early (jitter > 10s), reschedule for the
		// remaining time instead of rolling over on the wrong day.
		rem := timeUntilNextRollover()
		if rem > 10*time.Second && rem < 23*time.Hour {
			w.scheduleNext()
			return
		}

		w.executeRollover()
		w.scheduleNext()
	})
	w.mu.Unlock()

	log.Info(LogMsgRolloverApproach, "next_rollover_at", time.Now().Add(duration))
}

// executeRollover runs the streak evaluation in a tracked goroutine
func (w *RolloverWorker) executeRollover() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx := context.Background()
		log := logger.FromContext(ctx)
		log.Info(LogMsgRolloverStarting)

		result, err := w.service.CheckAndUpdateStreak(ctx)
		if err != nil {
			log.Error(LogMsgRolloverFailed, "error", err)
			return
		}

		log.Info(LogMsgRolloverCompleted, "streak", result.Streak, "rolled_over", result.RolledOver)
	}()
}

// Shutdown cancels the pending timer and waits for in-flight rollovers
func (w *RolloverWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down rollover worker")

	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Rollover worker shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Rollover worker shutdown timeout")
		return ctx.Err()
	}
}

// timeUntilNextRollover calculates the duration until the next local midnight.
// Streak semantics run on the device-local calendar day.
func timeUntilNextRollover() time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
