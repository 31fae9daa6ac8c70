package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	metrics "github.com/symph-co/shorturl/internal/infra/prometheus"
	"go.uber.org/zap"
)

type fakeExpiryCounter struct {
	n     int64
	err   error
	calls atomic.Int32
}

func (f *fakeExpiryCounter) CountExpired(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestExpiryReporter_SetsGauge(t *testing.T) {
	r := NewExpiryReporter(zap.NewNop(), &fakeExpiryCounter{n: 7}, time.Hour)
	r.report()
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.ExpiredLinks))
}

func TestExpiryReporter_KeepsGaugeOnError(t *testing.T) {
	metrics.ExpiredLinks.Set(3)
	r := NewExpiryReporter(zap.NewNop(), &fakeExpiryCounter{err: errors.New("conn reset")}, time.Hour)
	r.report()
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ExpiredLinks))
}

func TestExpiryReporter_StartStop(t *testing.T) {
	counter := &fakeExpiryCounter{}
	r := NewExpiryReporter(zap.NewNop(), counter, 10*time.Millisecond)
	r.Start()

	assert.Eventually(t, func() bool { return counter.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	r.Stop()
}

func TestNewExpiryReporter_DefaultInterval(t *testing.T) {
	r := NewExpiryReporter(zap.NewNop(), &fakeExpiryCounter{}, 0)
	assert.Equal(t, DefaultExpiryScanInterval, r.interval)
}
