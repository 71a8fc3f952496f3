package pipeline

import (
	"context"
	"time"
)

// publishAsync hands the analysis to the sinks in the background. The sink
// context outlives ctx and is bounded by the publish timeout, so neither a
// slow broker nor a disconnecting client affects the caller.
func (s *Service) publishAsync(ctx context.Context, scope string, a Analysis) {
	if s.publisher == nil && s.summaries == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()
		s.publish(ctx, scope, a)
	}()
}

// Drain waits for in-flight sink deliveries, or until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish fans an analysis out to the configured sinks. Failures are logged
// and counted; they never fail the analysis.
func (s *Service) publish(ctx context.Context, scope string, a Analysis) {
	if s.publisher != nil {
		err := s.withRetry(ctx, func() error {
			return s.publisher.PublishScored(ctx, scope, a.Results, a.AnalyzedAt)
		})
		if err != nil {
			s.metrics.PublishErrors.WithLabelValues("kafka").Inc()
			s.logger.Error("publish scored samples failed", "error", err, "scope", scope, "count", a.Count)
		}
	}

	if s.summaries != nil {
		if err := s.summaries.RecordSummary(ctx, scope, a.Summary, a.AnalyzedAt); err != nil {
			s.metrics.PublishErrors.WithLabelValues("influx").Inc()
			s.logger.Warn("record summary failed", "error", err, "scope", scope)
		}
	}
}

// withRetry runs fn up to maxRetries+1 times with exponential backoff
// between attempts.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	backoff := s.initialBackoff
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= s.maxRetries || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("publish attempt failed, retrying", "error", err, "attempt", attempt+1, "backoff", backoff)
		if !sleepWithContext(ctx, backoff) {
			return err
		}
		backoff = nextBackoff(backoff, s.maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
