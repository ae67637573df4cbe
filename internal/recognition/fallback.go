package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// step is one entry of a ranked fallback list
type step[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

// firstSuccess runs steps in order, each under its own timeout derived from ctx,
// and returns the first success. A step that times out is not retried. Once ctx
// itself is done, the remaining steps are skipped.
func firstSuccess[T any](ctx context.Context, steps []step[T], timeout time.Duration, logger *slog.Logger) (T, string, error) {
	var zero T
	var errs []error

	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		out, err := s.run(attemptCtx)
		cancel()

		if err == nil {
			return out, s.name, nil
		}

		logger.Warn("model attempt failed",
			"model", s.name,
			"rank", i+1,
			"error", err,
			"duration", time.Since(start))
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	if len(errs) == 0 {
		return zero, "", errors.New("no models configured")
	}
	return zero, "", errors.Join(errs...)
}
