// Package runtime wires the event pipeline: dispatch, sharded fan-out and
// the supervised background workers. It holds no business rules.
package runtime

import (
	"agora/contract"
	"agora/domain/event"
	"agora/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ contract.IDispatcher = (*Orchestrator)(nil)

// Orchestrator routes every event of an agora to the same fan-out shard,
// which keeps per-agora ordering while different agoras progress in parallel.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	shards         []chan event.DomainEvent
	permanentSinks []contract.EventSink
	extraWorkers   []contract.Worker
	sinkTimeout    time.Duration
	cancel         context.CancelFunc
	done           chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	numWorkers, bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	if numWorkers < 1 {
		numWorkers = 1
	}
	shards := make([]chan event.DomainEvent, numWorkers)
	for i := range shards {
		shards[i] = make(chan event.DomainEvent, bufferSize)
	}
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		shards:      shards,
		sinkTimeout: sinkTimeout,
	}
}

// AddSinks registers sinks receiving the events of every agora.
// Must be called before Start.
func (o *Orchestrator) AddSinks(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// AddWorkers registers extra background workers supervised with the fan-out.
// Must be called before Start.
func (o *Orchestrator) AddWorkers(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, w...)
}

// Dispatch queues an event on its agora's shard. It waits for room in the
// shard rather than dropping, so a stored chat is always offered to subscribers.
func (o *Orchestrator) Dispatch(ctx context.Context, e event.DomainEvent) error {
	shard := o.shards[int(uint64(e.AgoraID())%uint64(len(o.shards)))]
	select {
	case shard <- e:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch to agora %d: %w", e.AgoraID(), ctx.Err())
	}
}

// Start launches the supervisor in the background.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	for _, shard := range o.shards {
		o.supervisor.Add(workers.NewEventFanout(o.log, shard, o.registry, o.permanentSinks, o.sinkTimeout))
	}
	o.supervisor.Add(o.extraWorkers...)
	supervisedCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "shards", len(o.shards))
	go func() {
		defer close(done)
		o.supervisor.Run(supervisedCtx)
	}()
}

// Stop cancels the workers and waits for them to return.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	o.log.Info("Requesting orchestrator shutdown")
	cancel()
	<-done
}
