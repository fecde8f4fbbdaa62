package services

import (
	"agora/domain/agora"
	"agora/errors"
	"agora/repositories"
	"agora/runtime"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type IParticipationRegistry interface {
	Join(ctx context.Context, cmd agora.JoinCommand) (agora.Membership, error)
	Exists(id agora.ID, userID agora.UserID) (bool, error)
	CountActive(id agora.ID) (int, error)
	HasVoted(id agora.ID, userID agora.UserID) (bool, error)
	Members(id agora.ID) ([]agora.Membership, error)
}

// ParticipationRegistry owns memberships: at most one per (agora, user),
// created under the agora's lock and inside one store transaction.
type ParticipationRegistry struct {
	log    *slog.Logger
	agoras repositories.IAgoraRepository
	users  repositories.IUserRepository
	locks  *runtime.SessionLocks
}

func NewParticipationRegistry(log *slog.Logger, agoras repositories.IAgoraRepository,
	users repositories.IUserRepository, locks *runtime.SessionLocks) *ParticipationRegistry {
	return &ParticipationRegistry{log: log, agoras: agoras, users: users, locks: locks}
}

// Join creates the membership of a user in an agora.
// A repeated join fails with ErrAlreadyJoined, a full agora with ErrCapacityExceeded.
func (p *ParticipationRegistry) Join(_ context.Context, cmd agora.JoinCommand) (agora.Membership, error) {
	if err := cmd.Validate(); err != nil {
		return agora.Membership{}, err
	}
	// Lookups happen before taking the agora lock.
	if _, err := p.agoras.Get(cmd.AgoraID); err != nil {
		return agora.Membership{}, err
	}
	if _, err := p.users.FindByID(cmd.UserID); err != nil {
		return agora.Membership{}, err
	}
	membershipID, err := p.agoras.NextMembershipID()
	if err != nil {
		return agora.Membership{}, err
	}

	unlock := p.locks.Lock(cmd.AgoraID)
	defer unlock()

	var created agora.Membership
	err = p.agoras.InSession(cmd.AgoraID, func(tx repositories.SessionTx) error {
		a, err := tx.Agora()
		if err != nil {
			return err
		}
		_, err = tx.Membership(cmd.UserID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user %d in agora %d", errors.ErrAlreadyJoined, cmd.UserID, cmd.AgoraID)
		case !errors.Is(err, errors.ErrMembershipNotFound):
			return err
		}
		count, err := tx.CountMemberships()
		if err != nil {
			return err
		}
		if err := a.AcceptsMembers(count); err != nil {
			return err
		}
		created = agora.NewMembership(cmd, time.Now().UTC())
		created.ID = membershipID
		return tx.SaveMembership(created)
	})
	if err != nil {
		return agora.Membership{}, err
	}
	p.log.Info("User joined agora",
		"agora_id", cmd.AgoraID, "user_id", cmd.UserID, "role", cmd.Role)
	return created, nil
}

// Exists is the membership probe gating start, votes and chats.
func (p *ParticipationRegistry) Exists(id agora.ID, userID agora.UserID) (bool, error) {
	_, err := p.agoras.Membership(id, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errors.ErrMembershipNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (p *ParticipationRegistry) CountActive(id agora.ID) (int, error) {
	return p.agoras.CountMemberships(id)
}

func (p *ParticipationRegistry) HasVoted(id agora.ID, userID agora.UserID) (bool, error) {
	if _, err := p.agoras.Get(id); err != nil {
		return false, err
	}
	m, err := p.agoras.Membership(id, userID)
	if err != nil {
		return false, err
	}
	return m.HasVoted(), nil
}

func (p *ParticipationRegistry) Members(id agora.ID) ([]agora.Membership, error) {
	if _, err := p.agoras.Get(id); err != nil {
		return nil, err
	}
	return p.agoras.Memberships(id)
}

// markEndVoted flips the voter's flag inside the caller's transaction.
func markEndVoted(tx repositories.SessionTx, userID agora.UserID) (agora.Membership, error) {
	m, err := tx.Membership(userID)
	if err != nil {
		return agora.Membership{}, err
	}
	if err := m.MarkEndVoted(); err != nil {
		return agora.Membership{}, err
	}
	return m, tx.SaveMembership(m)
}
