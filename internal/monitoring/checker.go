package monitoring

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCheckInterval = time.Minute
	pingTimeout          = 5 * time.Second
)

// Pinger is the part of a store the checker pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker pings the store in the background and records the result.
type Checker struct {
	store    Pinger
	metrics  *Metrics
	interval time.Duration
	healthy  atomic.Bool
}

// NewChecker creates a store health checker. A non-positive interval
// defaults to one minute.
func NewChecker(store Pinger, metrics *Metrics, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &Checker{store: store, metrics: metrics, interval: interval}
}

// Healthy reports the result of the last ping.
func (c *Checker) Healthy() bool {
	return c.healthy.Load()
}

// Run pings once immediately, then on every tick. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting store checker", zap.Duration("interval", c.interval))

	c.check(ctx, log)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("store checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := c.store.Ping(pingCtx)
	up := err == nil
	if c.healthy.Swap(up) != up {
		if up {
			log.Info("monitoring: store reachable")
		} else {
			log.Warn("monitoring: store unreachable", zap.Error(err))
		}
	}
	c.metrics.setStoreUp(up)
}
