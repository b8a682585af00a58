package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/logger"
)

// RemoteSyncer is the slice of the progression service the sync worker drives.
type RemoteSyncer interface {
	SyncToRemote(ctx context.Context) error
	Identity() string
}

// SyncWorker periodically pushes the local state to the remote store while an
// identity is attached. Guest sessions are skipped silently.
type SyncWorker struct {
	service  RemoteSyncer
	interval time.Duration
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewSyncWorker creates a new SyncWorker
func NewSyncWorker(service RemoteSyncer, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		service:  service,
		interval: interval,
		shutdown: make(chan struct{}),
	}
}

// Start launches the periodic sync loop
func (w *SyncWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *SyncWorker) run() {
	defer w.wg.Done()

	log := logger.FromContext(context.Background())
	log.Info(LogMsgSyncWorkerStarted, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			log.Info(LogMsgSyncWorkerStopped)
			return
		case <-ticker.C:
			w.syncOnce()
		}
	}
}

func (w *SyncWorker) syncOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	log := logger.FromContext(ctx)

	if w.service.Identity() == "" {
		log.Debug(LogMsgSyncSkippedGuest)
		return
	}

	if err := w.service.SyncToRemote(ctx); err != nil {
		if errors.Is(err, domain.ErrNoIdentity) {
			// Identity detached between the check and the push.
			return
		}
		log.Warn(LogMsgSyncFailed, "error", err)
	}
}

// Shutdown stops the sync loop and waits for an in-flight push
func (w *SyncWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down sync worker")

	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Warn("Sync worker shutdown timeout")
		return ctx.Err()
	}
}
