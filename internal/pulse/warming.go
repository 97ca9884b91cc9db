package pulse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/observability"
)

// PlaceFetcher is implemented by the orchestrator. Declared here so the
// warmer does not depend on the concrete Orchestrator type in tests.
type PlaceFetcher interface {
	ForPlace(ctx context.Context, place string) (models.PulseSnapshot, error)
}

// Warmer prefetches pulses for a list of popular places so first requests
// after startup hit warm caches.
type Warmer struct {
	fetcher PlaceFetcher
	logger  *zap.Logger
}

// NewWarmer creates a Warmer over the given fetcher.
func NewWarmer(fetcher PlaceFetcher, logger *zap.Logger) *Warmer {
	return &Warmer{fetcher: fetcher, logger: logger}
}

// Warm fetches a pulse for each place concurrently, populating the source
// caches as a side effect. Returns an aggregated error if any place failed.
func (w *Warmer) Warm(ctx context.Context, places []string) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	w.logger.Info("warming pulse caches", zap.Int("places", len(places)))

	var wg sync.WaitGroup
	errCh := make(chan error, len(places))
	for _, place := range places {
		place := place
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.ForPlace(ctx, place); err != nil {
				errCh <- fmt.Errorf("warm %s: %w", place, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	w.logger.Info("pulse cache warming complete",
		zap.Int("places", len(places)),
		zap.Int("errors", len(errs)),
		zap.Duration("duration", time.Since(start)))
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("pulse warming: %v", errs)
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval
// until ctx is done.
func (w *Warmer) WarmPeriodic(ctx context.Context, places []string, interval time.Duration) error {
	if err := w.Warm(ctx, places); err != nil {
		w.logger.Warn("initial pulse warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, places); err != nil {
				w.logger.Warn("periodic pulse warm failed", zap.Error(err))
			}
		}
	}
}
