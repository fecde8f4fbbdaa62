package services

import (
	"agora/domain/agora"
	"agora/domain/event"
	"agora/errors"
	"agora/mocks"
	"agora/sink"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAgoraService_Scenario_TwoMembersVoteToClose(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)

	// Given an agora of capacity 3 with two members
	a := f.createAgora(t, "Should cities ban cars?", 3, categoryB)
	req.Equal(agora.StatusPending, a.Status)
	f.join(t, a.ID, 1)
	f.join(t, a.ID, 2)

	// When the first member starts it
	started, err := f.agoraService.Start(ctx, a.ID, 1)
	req.NoError(err)
	req.Equal(agora.StatusRunning, started.Status)

	// Then one vote keeps it running and the second closes it
	afterFirst, err := f.agoraService.CastEndVote(ctx, a.ID, 1)
	req.NoError(err)
	req.Equal(agora.StatusRunning, afterFirst.Status)
	req.Equal(1, afterFirst.EndVoteCount)

	afterSecond, err := f.agoraService.CastEndVote(ctx, a.ID, 2)
	req.NoError(err)
	req.Equal(agora.StatusClosed, afterSecond.Status)
	req.Equal(2, afterSecond.EndVoteCount)
	req.False(afterSecond.ClosedAt.IsZero())

	stored, err := f.agoraService.Get(a.ID)
	req.NoError(err)
	req.Equal(agora.StatusClosed, stored.Status)
}

func TestAgoraService_QuorumIsReachedAtTheLastVoteOnly(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)
	a := f.createAgora(t, "Four voices", 10, rootCategory)
	for u := agora.UserID(1); u <= 4; u++ {
		f.join(t, a.ID, u)
	}
	_, err := f.agoraService.Start(ctx, a.ID, 1)
	req.NoError(err)

	for u := agora.UserID(1); u <= 3; u++ {
		got, err := f.agoraService.CastEndVote(ctx, a.ID, u)
		req.NoError(err)
		req.Equal(agora.StatusRunning, got.Status)
		req.Equal(int(u), got.EndVoteCount)
	}

	got, err := f.agoraService.CastEndVote(ctx, a.ID, 4)
	req.NoError(err)
	req.Equal(agora.StatusClosed, got.Status)
	req.Equal(4, got.EndVoteCount)
}

func TestAgoraService_SecondVoteOfAMemberIsRejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)
	a := f.createAgora(t, "Double vote", 5, rootCategory)
	f.join(t, a.ID, 1)
	f.join(t, a.ID, 2)
	_, err := f.agoraService.Start(ctx, a.ID, 1)
	req.NoError(err)
	_, err = f.agoraService.CastEndVote(ctx, a.ID, 1)
	req.NoError(err)

	_, err = f.agoraService.CastEndVote(ctx, a.ID, 1)

	req.ErrorIs(err, errors.ErrAlreadyVoted)
	stored, err := f.agoraService.Get(a.ID)
	req.NoError(err)
	req.Equal(1, stored.EndVoteCount)
	req.Equal(agora.StatusRunning, stored.Status)
	voted, err := f.participation.HasVoted(a.ID, 1)
	req.NoError(err)
	req.True(voted)
}

func TestAgoraService_ConcurrentVotesAreCountedOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)
	const members = 12
	a := f.createAgora(t, "Crowded", members, rootCategory)
	for u := agora.UserID(1); u <= members; u++ {
		f.join(t, a.ID, u)
	}
	_, err := f.agoraService.Start(ctx, a.ID, 1)
	req.NoError(err)

	// Every member votes twice at the same time
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0
	for u := agora.UserID(1); u <= members; u++ {
		for range 2 {
			wg.Add(1)
			go func(u agora.UserID) {
				defer wg.Done()
				_, err := f.agoraService.CastEndVote(ctx, a.ID, u)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					accepted++
				} else if errors.Is(err, errors.ErrAlreadyVoted) {
					rejected++
				}
			}(u)
		}
	}
	wg.Wait()

	req.Equal(members, accepted)
	req.Equal(members, rejected)
	stored, err := f.agoraService.Get(a.ID)
	req.NoError(err)
	req.Equal(members, stored.EndVoteCount)
	req.Equal(agora.StatusClosed, stored.Status)
}

func TestAgoraService_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("start on a running agora", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, nil, 10)
		a := f.createAgora(t, "Twice", 3, rootCategory)
		f.join(t, a.ID, 1)
		_, err := f.agoraService.Start(ctx, a.ID, 1)
		req.NoError(err)

		_, err = f.agoraService.Start(ctx, a.ID, 1)

		req.ErrorIs(err, errors.ErrInvalidTransition)
	})

	t.Run("start by a non member", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, nil, 10)
		a := f.createAgora(t, "Outsider", 3, rootCategory)

		_, err := f.agoraService.Start(ctx, a.ID, 9)

		req.ErrorIs(err, errors.ErrMembershipNotFound)
		stored, err := f.agoraService.Get(a.ID)
		req.NoError(err)
		req.Equal(agora.StatusPending, stored.Status)
	})

	t.Run("start of an unknown agora", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, nil, 10)

		_, err := f.agoraService.Start(ctx, 404, 1)

		req.ErrorIs(err, errors.ErrAgoraNotFound)
		req.ErrorIs(err, errors.ErrNotFound)
	})

	t.Run("vote on a pending agora", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, nil, 10)
		a := f.createAgora(t, "Too early", 3, rootCategory)
		f.join(t, a.ID, 1)

		_, err := f.agoraService.CastEndVote(ctx, a.ID, 1)

		req.ErrorIs(err, errors.ErrInvalidTransition)
		voted, err := f.participation.HasVoted(a.ID, 1)
		req.NoError(err)
		req.False(voted)
	})

	t.Run("vote by a non member", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, nil, 10)
		a := f.createAgora(t, "Stranger", 3, rootCategory)
		f.join(t, a.ID, 1)
		_, err := f.agoraService.Start(ctx, a.ID, 1)
		req.NoError(err)

		_, err = f.agoraService.CastEndVote(ctx, a.ID, 2)

		req.ErrorIs(err, errors.ErrMembershipNotFound)
	})

	t.Run("complete a running agora", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t, nil, 10)
		a := f.createAgora(t, "Not yet", 3, rootCategory)
		f.join(t, a.ID, 1)
		_, err := f.agoraService.Start(ctx, a.ID, 1)
		req.NoError(err)

		_, err = f.agoraService.Complete(ctx, a.ID)

		req.ErrorIs(err, errors.ErrInvalidTransition)
	})
}

func TestAgoraService_Create(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)

	_, err := f.agoraService.Create(ctx, agora.CreateAgoraCommand{
		Title: "Nowhere", Capacity: 3, Color: "#000000", CategoryID: 99,
	})
	req.ErrorIs(err, errors.ErrCategoryNotFound)

	_, err = f.agoraService.Create(ctx, agora.CreateAgoraCommand{
		Title: "", Capacity: 3, Color: "#000000", CategoryID: rootCategory,
	})
	req.ErrorIs(err, errors.ErrInvalidRequest)

	first := f.createAgora(t, "First", 3, rootCategory)
	second := f.createAgora(t, "Second", 3, rootCategory)
	req.Greater(second.ID, first.ID)
	req.Equal(0, second.EndVoteCount)
}

func TestAgoraService_ExpireThenLateVoteThenComplete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)
	a, err := f.agoraService.Create(ctx, agora.CreateAgoraCommand{
		Title: "Timed", Capacity: 3, Duration: time.Hour, Color: "#ff0000", CategoryID: rootCategory,
	})
	req.NoError(err)
	untimed := f.createAgora(t, "Untimed", 3, rootCategory)
	for _, id := range []agora.ID{a.ID, untimed.ID} {
		f.join(t, id, 1)
		f.join(t, id, 2)
		_, err = f.agoraService.Start(ctx, id, 1)
		req.NoError(err)
	}

	// Nothing is due before the duration elapsed
	closed, err := f.agoraService.ExpireDue(ctx, time.Now().UTC())
	req.NoError(err)
	req.Zero(closed)

	closed, err = f.agoraService.ExpireDue(ctx, time.Now().UTC().Add(2*time.Hour))
	req.NoError(err)
	req.Equal(1, closed)
	expired, err := f.agoraService.Get(a.ID)
	req.NoError(err)
	req.Equal(agora.StatusClosed, expired.Status)
	stillRunning, err := f.agoraService.Get(untimed.ID)
	req.NoError(err)
	req.Equal(agora.StatusRunning, stillRunning.Status)

	// A closed agora keeps accepting late votes
	late, err := f.agoraService.CastEndVote(ctx, a.ID, 2)
	req.NoError(err)
	req.Equal(agora.StatusClosed, late.Status)
	req.Equal(1, late.EndVoteCount)

	completed, err := f.agoraService.Complete(ctx, a.ID)
	req.NoError(err)
	req.Equal(agora.StatusCompleted, completed.Status)

	_, err = f.agoraService.CastEndVote(ctx, a.ID, 1)
	req.ErrorIs(err, errors.ErrInvalidTransition)
	_, err = f.participation.Join(ctx, joinCommand(a.ID, 3))
	req.ErrorIs(err, errors.ErrInvalidTransition)
}

func TestAgoraService_StatusChangesAreBroadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)
	a := f.createAgora(t, "Watched", 3, rootCategory)
	f.join(t, a.ID, 1)
	subscriber := sink.NewGrpcSink(f.log, 10)
	subscriptionID, err := f.chatService.Subscribe(a.ID, subscriber)
	req.NoError(err)
	defer f.chatService.Unsubscribe(subscriptionID, a.ID)

	_, err = f.agoraService.Start(ctx, a.ID, 1)
	req.NoError(err)
	_, err = f.agoraService.CastEndVote(ctx, a.ID, 1)
	req.NoError(err)

	for _, want := range []agora.Status{agora.StatusRunning, agora.StatusClosed} {
		select {
		case evt := <-subscriber.Events():
			changed, ok := evt.(event.StatusChanged)
			req.True(ok)
			req.Equal(a.ID, changed.AgoraID())
			req.Equal(want, changed.To)
		case <-time.After(2 * time.Second):
			t.Fatalf("no status change to %s received", want)
		}
	}
}

func TestAgoraService_RejectedTransitionDispatchesNothing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, 10)
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockIDispatcher(ctrl)
	service := NewAgoraService(f.log, f.agoras, f.categories, f.index, f.locks, dispatcher)
	a := f.createAgora(t, "Quiet", 3, rootCategory)
	f.join(t, a.ID, 1)

	// Only the successful start reaches the dispatcher
	dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e event.DomainEvent) error {
			changed, ok := e.(event.StatusChanged)
			req.True(ok)
			req.Equal(agora.StatusPending, changed.From)
			req.Equal(agora.StatusRunning, changed.To)
			return nil
		}).Times(1)

	_, err := service.Start(ctx, a.ID, 1)
	req.NoError(err)
	_, err = service.Start(ctx, a.ID, 1)
	req.ErrorIs(err, errors.ErrInvalidTransition)
}
