package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"weddingplan/internal/logger"
	"weddingplan/internal/session"
)

const defaultSweepInterval = 5 * time.Minute

// SessionSweeper periodically evicts expired import sessions so abandoned drafts do not
// accumulate between requests.
type SessionSweeper struct {
	store    *session.Store
	interval time.Duration
	log      *zap.Logger
}

// NewSessionSweeper creates a new SessionSweeper.
func NewSessionSweeper(store *session.Store, interval time.Duration, log *zap.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SessionSweeper{store: store, interval: interval, log: logger.OrNop(log)}
}

// Start runs the sweep loop until ctx is canceled.
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("sessionSweeper: started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("sessionSweeper: shutdown complete")
			return
		case <-ticker.C:
			if n := w.store.Sweep(); n > 0 {
				w.log.Info("sessionSweeper: evicted expired sessions", zap.Int("count", n))
			}
		}
	}
}
