//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"agora/domain/agora"
	"agora/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the events of an agora topic.
// Consume must not block the caller for long.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry maps agora topics to the sinks of connected subscribers.
type IRegistry interface {
	GetSinksForAgora(id agora.ID) []EventSink
	Subscribe(subscriptionID string, id agora.ID, sink EventSink)
	Unsubscribe(subscriptionID string, id agora.ID)
}

// IDispatcher hands events over to the fan-out workers.
type IDispatcher interface {
	Dispatch(ctx context.Context, e event.DomainEvent) error
}
