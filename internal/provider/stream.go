package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// AnalyzeFunc performs the blocking part of a face analysis
type AnalyzeFunc func(ctx context.Context) domain.AnalysisEvent

// Stream runs fn in its own goroutine and returns the analysis event stream:
// one loading event, then the event returned by fn. The channel is closed
// afterwards, or as soon as ctx is cancelled.
func Stream(ctx context.Context, fn AnalyzeFunc) <-chan domain.AnalysisEvent {
	out := make(chan domain.AnalysisEvent, 1)

	go func() {
		defer close(out)

		if !Emit(ctx, out, domain.AnalysisInProgress()) {
			return
		}
		Emit(ctx, out, fn(ctx))
	}()

	return out
}

// Emit sends ev unless ctx is done. A done ctx wins even when ch is ready.
func Emit[T any](ctx context.Context, ch chan<- T, ev T) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case ch <- ev:
		return true
	}
}
