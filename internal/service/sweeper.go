package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper expires waiting conversations that nobody picked up within the
// configured idle window.
type Sweeper struct {
	store    Store
	logger   *logrus.Logger
	interval time.Duration
	maxIdle  time.Duration
}

func NewSweeper(store Store, logger *logrus.Logger, interval, maxIdle time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		maxIdle:  maxIdle,
	}
}

// Run sweeps on the configured interval until the context ends.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Conversation sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single expiry pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxIdle)
	expired, err := s.store.ExpireStaleConversations(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire stale conversations")
		return
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Expired stale waiting conversations")
	}
}
