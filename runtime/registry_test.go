package runtime

import (
	"agora/contract"
	"agora/domain/agora"
	"agora/domain/event"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Agora_One_Subscriber(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	subscriptionID := uuid.NewString()
	id := agora.ID(1)
	sink := &Sink{name: "alice"}

	// Given nobody listens
	req.Zero(registry.Topics())
	req.Nil(registry.GetSinksForAgora(id))

	// When a subscriber joins the topic
	registry.Subscribe(subscriptionID, id, sink)

	// Then
	req.Equal(1, registry.Topics())
	req.Len(registry.GetSinksForAgora(id), 1)
	req.Contains(registry.GetSinksForAgora(id), sink)
}

func TestRegistry_Subscribe_One_Agora_Multiple_Subscribers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := agora.ID(1)
	sink1 := &Sink{name: "alice"}
	sink2 := &Sink{name: "bob"}

	registry.Subscribe(uuid.NewString(), id, sink1)
	registry.Subscribe(uuid.NewString(), id, sink2)

	req.Equal(1, registry.Topics())
	req.ElementsMatch([]*Sink{sink1, sink2}, toSinks(registry.GetSinksForAgora(id)))
	req.Nil(registry.GetSinksForAgora(2))
}

func TestRegistry_Unsubscribe_Drops_Empty_Topics(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first, second := uuid.NewString(), uuid.NewString()
	id := agora.ID(1)
	registry.Subscribe(first, id, &Sink{name: "alice"})
	registry.Subscribe(second, id, &Sink{name: "bob"})

	registry.Unsubscribe(first, id)
	req.Len(registry.GetSinksForAgora(id), 1)

	registry.Unsubscribe(second, id)
	req.Zero(registry.Topics())

	// Unknown subscriptions are ignored
	registry.Unsubscribe("missing", id)
	req.Zero(registry.Topics())
}

func toSinks(sinks []contract.EventSink) []*Sink {
	out := make([]*Sink, 0, len(sinks))
	for _, s := range sinks {
		out = append(out, s.(*Sink))
	}
	return out
}
