package pipeline

import (
	"context"
	"time"

	"figure-stand/internal/logger"
)

type TimingTracker interface {
	StartTiming(operation string) context.Context
	EndTiming(ctx context.Context)
}

type timingKey struct{}

type timing struct {
	operation string
	start     time.Time
}

// logTimingTracker reports stage durations at debug level.
type logTimingTracker struct {
	logger logger.Logger
}

func newTimingTracker(log logger.Logger) TimingTracker {
	return &logTimingTracker{logger: log}
}

func (t *logTimingTracker) StartTiming(operation string) context.Context {
	return context.WithValue(context.Background(), timingKey{}, timing{operation: operation, start: time.Now()})
}

func (t *logTimingTracker) EndTiming(ctx context.Context) {
	tm, ok := ctx.Value(timingKey{}).(timing)
	if !ok {
		return
	}
	t.logger.Debug("Timing", "operation finished", map[string]interface{}{
		"operation":   tm.operation,
		"duration_ms": float64(time.Since(tm.start).Microseconds()) / 1000,
	})
}
