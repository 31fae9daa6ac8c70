package service

import (
	"context"
	"time"

	apprepository "github.com/symph-co/shorturl/internal/app/repository"
	metrics "github.com/symph-co/shorturl/internal/infra/prometheus"
	"go.uber.org/zap"
)

// DefaultExpiryScanInterval is used when no interval is configured.
const DefaultExpiryScanInterval = time.Minute

// ExpiryReporter periodically counts links past their expiry and exports the
// figure as a gauge. It never removes or blocks anything.
type ExpiryReporter struct {
	logger   *zap.Logger
	counter  apprepository.ExpiryCounter
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopped  chan struct{}
}

// NewExpiryReporter creates a new expiry reporter.
func NewExpiryReporter(logger *zap.Logger, counter apprepository.ExpiryCounter, interval time.Duration) *ExpiryReporter {
	if interval <= 0 {
		interval = DefaultExpiryScanInterval
	}
	return &ExpiryReporter{
		logger:   logger.Named("expiry_reporter"),
		counter:  counter,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the periodic scan.
func (r *ExpiryReporter) Start() {
	go r.run()
}

// Stop ends the scan and waits for the loop to exit.
func (r *ExpiryReporter) Stop() {
	close(r.stopChan)
	<-r.stopped
}

func (r *ExpiryReporter) run() {
	defer close(r.stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.report()
	for {
		select {
		case <-ticker.C:
			r.report()
		case <-r.stopChan:
			r.logger.Info("expiry reporter stopped")
			return
		}
	}
}

func (r *ExpiryReporter) report() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	now := r.now()
	expired, err := r.counter.CountExpired(ctx, now)
	if err != nil {
		r.logger.Error("failed to count expired links", zap.Error(err))
		return
	}

	metrics.ExpiredLinks.Set(float64(expired))
	if expired > 0 {
		r.logger.Info("links past expiry",
			zap.Int64("count", expired),
			zap.Time("as_of", now),
		)
	}
}
