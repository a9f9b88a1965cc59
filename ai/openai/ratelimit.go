package openai

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/syllabus/metrics"
	"golang.org/x/time/rate"
)

// limiterPool hands out one rate limiter per model so the embedder and the
// generator throttle independently even when they share a host.
type limiterPool struct {
	rpm      int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	metrics  *metrics.Collector
}

func newLimiterPool(requestsPerMinute int, collector *metrics.Collector) *limiterPool {
	return &limiterPool{
		rpm:      requestsPerMinute,
		limiters: make(map[string]*rate.Limiter),
		metrics:  collector,
	}
}

func (p *limiterPool) get(model string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, ok := p.limiters[model]; ok {
		return limiter
	}

	rps := float64(p.rpm) / 60.0
	burst := max(5, p.rpm/5)
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	p.limiters[model] = limiter

	slog.Debug("created rate limiter", "model", model, "rpm", p.rpm, "burst", burst)
	return limiter
}

// wait blocks until model may be called. A pool with no rate never blocks.
func (p *limiterPool) wait(ctx context.Context, model string) error {
	if p == nil || p.rpm <= 0 {
		return ctx.Err()
	}
	start := time.Now()
	err := p.get(model).Wait(ctx)
	p.metrics.RecordRateLimiterWait(model, time.Since(start))
	return err
}
