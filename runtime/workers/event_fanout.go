package workers

import (
	"agora/contract"
	"agora/domain/event"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout delivers the events of one shard of agoras to the permanent
// sinks and to every subscriber of the event's agora.
//
// Events are handled one at a time, so the subscribers of an agora see its
// events in dispatch order. Sinks are expected to enqueue and return; a sink
// that exceeds sinkTimeout is abandoned for that event.
type EventFanout struct {
	log            *slog.Logger
	events         chan event.DomainEvent
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, events chan event.DomainEvent, registry contract.IRegistry,
	permanentSinks []contract.EventSink, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:            log,
		events:         events,
		registry:       registry,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := append(append([]contract.EventSink{}, w.permanentSinks...),
		w.registry.GetSinksForAgora(evt.AgoraID())...)
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume event", "agora_id", evt.AgoraID(), "error", err)
		}
		cancel()
	}
}
