package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carpool/internal/logger"
)

// Janitor prunes the cache on a fixed period so that keys written once and
// never touched again do not pile up between explicit prune commands.
type Janitor struct {
	dispatcher *Dispatcher
	every      time.Duration
	log        *logger.Logger
}

// NewJanitor returns a janitor. every <= 0 makes Run return immediately.
func NewJanitor(d *Dispatcher, every time.Duration, log *logger.Logger) *Janitor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Janitor{dispatcher: d, every: every, log: log}
}

// Run prunes every period until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	if j.every <= 0 {
		return nil
	}

	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := j.dispatcher.Prune(ctx); n > 0 {
				j.log.Info(ctx, "janitor reclaimed entries", zap.Int("removed", n))
			}
		}
	}
}
