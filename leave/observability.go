package leave

import (
	"log/slog"
)

// LookupEvent records metadata about a single leave lookup.
type LookupEvent struct {
	Window    string
	Emails    int
	Attempts  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about leave lookups for logging and metrics.
type Observer interface {
	OnLookupComplete(event LookupEvent)
}

// LogObserver writes lookup events to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger.With(slog.String("component", "leave"))}
}

func (o *LogObserver) OnLookupComplete(event LookupEvent) {
	attrs := []any{
		slog.String("window", event.Window),
		slog.Int("emails", event.Emails),
		slog.Int("attempts", event.Attempts),
		slog.Int64("latency_ms", event.LatencyMs),
	}
	if !event.Success {
		o.logger.Warn("leave lookup failed", append(attrs, slog.String("error_code", event.ErrorCode))...)
		return
	}
	o.logger.Info("leave lookup", attrs...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnLookupComplete(LookupEvent) {}
