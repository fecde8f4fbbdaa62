package services

import (
	"agora/contract"
	"agora/domain/agora"
	"agora/domain/event"
	"agora/errors"
	"agora/repositories"
	"agora/runtime"
	"context"
	"log/slog"
	"sync"
	"time"
)

type IAgoraService interface {
	Create(ctx context.Context, cmd agora.CreateAgoraCommand) (agora.Agora, error)
	Get(id agora.ID) (agora.Agora, error)
	Start(ctx context.Context, id agora.ID, userID agora.UserID) (agora.Agora, error)
	CastEndVote(ctx context.Context, id agora.ID, userID agora.UserID) (agora.Agora, error)
	Complete(ctx context.Context, id agora.ID) (agora.Agora, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// Indexer keeps the search index in line with stored agoras.
type Indexer interface {
	Index(a agora.Agora) error
}

// AgoraService is the lifecycle engine. Every transition of an agora runs
// under that agora's lock and inside a single store transaction; the search
// index and the topic are updated before the lock is released so that they
// observe transitions in order.
type AgoraService struct {
	log        *slog.Logger
	agoras     repositories.IAgoraRepository
	categories agora.CategoryFinder
	index      Indexer
	locks      *runtime.SessionLocks
	dispatcher contract.IDispatcher

	// stale holds agoras whose last index update failed.
	staleMu sync.Mutex
	stale   map[agora.ID]struct{}
}

func NewAgoraService(log *slog.Logger, agoras repositories.IAgoraRepository, categories agora.CategoryFinder,
	index Indexer, locks *runtime.SessionLocks, dispatcher contract.IDispatcher) *AgoraService {
	return &AgoraService{
		log:        log,
		agoras:     agoras,
		categories: categories,
		index:      index,
		locks:      locks,
		dispatcher: dispatcher,
		stale:      make(map[agora.ID]struct{}),
	}
}

// Create stores a pending agora. Once stored the agora is returned even if
// the index update fails; the index is caught up by RetryStaleIndex.
func (s *AgoraService) Create(_ context.Context, cmd agora.CreateAgoraCommand) (agora.Agora, error) {
	if err := cmd.Validate(); err != nil {
		return agora.Agora{}, err
	}
	if _, err := s.categories.FindCategory(cmd.CategoryID); err != nil {
		return agora.Agora{}, err
	}
	created, err := s.agoras.Create(agora.NewAgora(cmd, time.Now().UTC()))
	if err != nil {
		return agora.Agora{}, err
	}
	s.indexOrMarkStale(created)
	s.log.Info("Agora created", "agora_id", created.ID, "category_id", created.CategoryID)
	return created, nil
}

func (s *AgoraService) Get(id agora.ID) (agora.Agora, error) {
	return s.agoras.Get(id)
}

// Start moves a pending agora to running on behalf of one of its members.
func (s *AgoraService) Start(ctx context.Context, id agora.ID, userID agora.UserID) (agora.Agora, error) {
	return s.transition(ctx, id, func(tx repositories.SessionTx, a *agora.Agora, now time.Time) error {
		if _, err := tx.Membership(userID); err != nil {
			return err
		}
		return a.Start(now)
	})
}

// CastEndVote records the end vote of a member and closes the agora once all
// current members voted. The vote, the tally and the quorum decision are one
// atomic step, so concurrent votes are counted exactly once each.
func (s *AgoraService) CastEndVote(ctx context.Context, id agora.ID, userID agora.UserID) (agora.Agora, error) {
	return s.transition(ctx, id, func(tx repositories.SessionTx, a *agora.Agora, now time.Time) error {
		if err := a.AcceptsEndVotes(); err != nil {
			return err
		}
		if _, err := markEndVoted(tx, userID); err != nil {
			return err
		}
		participants, err := tx.CountMemberships()
		if err != nil {
			return err
		}
		closed, err := a.IncrementEndVoteCountAndCheckTermination(participants, now)
		if err != nil {
			return err
		}
		s.log.Debug("End vote counted", "agora_id", id, "user_id", userID,
			"votes", a.EndVoteCount, "participants", participants, "closed", closed)
		return nil
	})
}

// Complete is the terminal transition of a closed agora.
func (s *AgoraService) Complete(ctx context.Context, id agora.ID) (agora.Agora, error) {
	return s.transition(ctx, id, func(_ repositories.SessionTx, a *agora.Agora, _ time.Time) error {
		return a.Complete()
	})
}

// ExpireDue closes every running agora whose duration elapsed at now.
// Agoras that moved on concurrently are skipped. Index updates that failed
// earlier are retried first.
func (s *AgoraService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	s.RetryStaleIndex()
	running, err := s.agoras.ListByStatus(agora.StatusRunning)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, candidate := range running {
		if !candidate.Expired(now) {
			continue
		}
		_, err := s.transition(ctx, candidate.ID, func(_ repositories.SessionTx, a *agora.Agora, _ time.Time) error {
			return a.Expire(now)
		})
		switch {
		case err == nil:
			closed++
		case errors.Is(err, errors.ErrInvalidTransition):
			s.log.Debug("Agora no longer expirable", "agora_id", candidate.ID)
		default:
			return closed, err
		}
	}
	return closed, nil
}

type mutation func(tx repositories.SessionTx, a *agora.Agora, now time.Time) error

// transition applies mutate to the stored agora and persists the result.
// Nothing is saved when mutate fails.
func (s *AgoraService) transition(ctx context.Context, id agora.ID, mutate mutation) (agora.Agora, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var before agora.Status
	var after agora.Agora
	now := time.Now().UTC()
	err := s.agoras.InSession(id, func(tx repositories.SessionTx) error {
		a, err := tx.Agora()
		if err != nil {
			return err
		}
		before = a.Status
		if err := mutate(tx, &a, now); err != nil {
			return err
		}
		after = a
		return tx.SaveAgora(a)
	})
	if err != nil {
		return agora.Agora{}, err
	}

	if after.Status != before {
		s.log.Info("Agora status changed", "agora_id", id, "from", before, "to", after.Status)
		s.indexOrMarkStale(after)
		if err := s.dispatcher.Dispatch(ctx, event.NewStatusChanged(before, after, now)); err != nil {
			s.log.Warn("Status change not broadcast", "agora_id", id, "error", err)
		}
	}
	return after, nil
}

// Reindex writes every stored agora to the search index. It runs at startup
// so that the index follows the store after a crash or a failed update.
func (s *AgoraService) Reindex() (int, error) {
	all, err := s.agoras.List()
	if err != nil {
		return 0, err
	}
	for _, a := range all {
		if err := s.reindex(a.ID); err != nil {
			return 0, err
		}
	}
	s.log.Info("Search index rebuilt", "agoras", len(all))
	return len(all), nil
}

// RetryStaleIndex indexes again the agoras whose last update failed.
// Those failing again stay stale until the next call.
func (s *AgoraService) RetryStaleIndex() {
	s.staleMu.Lock()
	ids := make([]agora.ID, 0, len(s.stale))
	for id := range s.stale {
		ids = append(ids, id)
	}
	s.staleMu.Unlock()

	for _, id := range ids {
		if err := s.reindex(id); err != nil {
			s.log.Warn("Index retry failed", "agora_id", id, "error", err)
		}
	}
}

// reindex reads the stored agora under its lock, so an older state never
// overwrites one indexed by a concurrent transition.
func (s *AgoraService) reindex(id agora.ID) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	a, err := s.agoras.Get(id)
	if err != nil {
		return err
	}
	if err := s.index.Index(a); err != nil {
		return err
	}
	s.staleMu.Lock()
	delete(s.stale, id)
	s.staleMu.Unlock()
	return nil
}

func (s *AgoraService) indexOrMarkStale(a agora.Agora) {
	if err := s.index.Index(a); err != nil {
		s.log.Error("Failed to index agora", "agora_id", a.ID, "error", err)
		s.staleMu.Lock()
		s.stale[a.ID] = struct{}{}
		s.staleMu.Unlock()
		return
	}
	s.staleMu.Lock()
	delete(s.stale, a.ID)
	s.staleMu.Unlock()
}
