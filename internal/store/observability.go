package store

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// OperationEvent captures lightweight execution telemetry for a store
// operation.
type OperationEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Observer receives store operation events.
type Observer interface {
	ObserveOperation(ctx context.Context, event OperationEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveOperation(context.Context, OperationEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes store operation events to the provided writer.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) ObserveOperation(ctx context.Context, event OperationEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"operation", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "store_operation", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "store_operation", attrs...)
}

func observerOrNoop(o Observer) Observer {
	if o == nil {
		return NoopObserver{}
	}
	return o
}

func observe(ctx context.Context, o Observer, name string, started time.Time, err error, fields map[string]any) {
	o.ObserveOperation(ctx, OperationEvent{
		Name:      name,
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: started,
	})
}
