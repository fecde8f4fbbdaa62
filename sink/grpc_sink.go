package sink

import (
	"agora/contract"
	"agora/domain/event"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

var _ contract.EventSink = (*GrpcSink)(nil)

// GrpcSink is the bounded queue between the fan-out and one connected stream.
// When the stream falls behind, the oldest queued event is dropped so that the
// fan-out never waits on a slow subscriber.
type GrpcSink struct {
	mu      sync.Mutex
	events  chan event.DomainEvent
	dropped atomic.Int64
	log     *slog.Logger
}

func NewGrpcSink(log *slog.Logger, bufferSize int) *GrpcSink {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &GrpcSink{events: make(chan event.DomainEvent, bufferSize), log: log}
}

// Events is read by the gRPC handler owning the connection.
func (s *GrpcSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Dropped counts events discarded because the queue was full.
func (s *GrpcSink) Dropped() int64 {
	return s.dropped.Load()
}

// Consume is called by fanout
// It never blocks: a full queue loses its oldest event.
func (s *GrpcSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case s.events <- e:
			return nil
		default:
		}
		select {
		case old := <-s.events:
			s.dropped.Add(1)
			s.log.Warn("Subscriber too slow, dropping oldest event", "agora_id", old.AgoraID())
		default:
		}
	}
}
