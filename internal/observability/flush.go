package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry drains telemetry buffers before process exit. Prometheus
// metrics are pull-based and need no flushing, so this amounts to syncing
// the log buffers. Call it during graceful shutdown once in-flight requests
// have drained.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil {
		// Sync on a terminal stderr returns ENOTTY/EINVAL; that is not a
		// failure to flush anything.
		if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) {
			return nil
		}
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}
