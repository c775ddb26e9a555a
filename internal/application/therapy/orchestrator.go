package therapy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/metrics"
)

// attemptFunc performs one request against one model id.
type attemptFunc[T any] func(ctx context.Context, model string) (T, error)

// firstUsable tries models strictly in order and returns the first usable value with the model id
// that produced it. A rate-limited model is skipped immediately, never retried. ok is false when
// every model failed or ctx was cancelled.
func firstUsable[T any](ctx context.Context, log *slog.Logger, op string, models []string, attempt attemptFunc[T]) (v T, model string, ok bool) {
	for i, m := range models {
		if err := ctx.Err(); err != nil {
			metrics.ModelAttemptsTotal.WithLabelValues(op, m, metrics.OutcomeCanceled).Inc()
			log.Warn("orchestration aborted", "op", op, "model", m, "remaining", len(models)-i, "err", err)
			return v, "", false
		}

		start := time.Now()
		out, err := attempt(ctx, m)
		metrics.ModelAttemptDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())

		outcome := classify(ctx, err)
		metrics.ModelAttemptsTotal.WithLabelValues(op, m, outcome).Inc()

		if err == nil {
			log.Info("model attempt", "op", op, "model", m, "outcome", outcome, "attempt", i+1)
			return out, m, true
		}

		switch outcome {
		case metrics.OutcomeRateLimited:
			log.Warn("model rate limited, advancing", "op", op, "model", m, "attempt", i+1)
		default:
			log.Warn("model attempt failed", "op", op, "model", m, "outcome", outcome, "attempt", i+1, "err", err)
		}
	}
	return v, "", false
}

func classify(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrQuotaExceeded):
		return metrics.OutcomeRateLimited
	case errors.Is(err, domain.ErrEmptyContent):
		return metrics.OutcomeEmpty
	case errors.Is(err, domain.ErrUnusableContent):
		return metrics.OutcomeUnparseable
	case ctx.Err() != nil:
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeError
	}
}
