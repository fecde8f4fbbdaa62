// Package agora contains the core concepts of a timed group discussion.
// It owns the status state machine and the end-vote quorum rule.
// No storage, network, or locking logic should be added here.
package agora

import (
	"agora/errors"
	"fmt"
	"strconv"
	"time"
)

type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type UserID int64

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusClosed    Status = "CLOSED"
	StatusCompleted Status = "COMPLETED"
)

// Agora is a discussion session. Status and EndVoteCount are only changed
// through the transition methods below.
type Agora struct {
	ID           ID
	Title        string
	Capacity     int
	Duration     time.Duration
	Color        string
	CategoryID   CategoryID
	Status       Status
	EndVoteCount int
	CreatedAt    time.Time
	StartedAt    time.Time
	ClosedAt     time.Time
}

func NewAgora(cmd CreateAgoraCommand, now time.Time) Agora {
	return Agora{
		Title:      cmd.Title,
		Capacity:   cmd.Capacity,
		Duration:   cmd.Duration,
		Color:      cmd.Color,
		CategoryID: cmd.CategoryID,
		Status:     StatusPending,
		CreatedAt:  now,
	}
}

// Start moves a pending agora to running.
func (a *Agora) Start(now time.Time) error {
	if a.Status != StatusPending {
		return a.invalidTransition(StatusRunning)
	}
	a.Status = StatusRunning
	a.StartedAt = now
	return nil
}

// AcceptsEndVotes tells whether end votes can still be cast.
// Closed agoras keep accepting late votes until they are completed.
func (a Agora) AcceptsEndVotes() error {
	if a.Status == StatusRunning || a.Status == StatusClosed {
		return nil
	}
	return fmt.Errorf("%w: agora %d is %s, end votes need RUNNING or CLOSED",
		errors.ErrInvalidTransition, a.ID, a.Status)
}

// AcceptsMembers tells whether a new participant can join.
func (a Agora) AcceptsMembers(participants int) error {
	if a.Status == StatusCompleted {
		return fmt.Errorf("%w: agora %d is completed", errors.ErrInvalidTransition, a.ID)
	}
	if a.Capacity > 0 && participants >= a.Capacity {
		return fmt.Errorf("%w: %d/%d participants", errors.ErrCapacityExceeded, participants, a.Capacity)
	}
	return nil
}

// IncrementEndVoteCountAndCheckTermination records one end vote and closes
// the agora once every current participant has voted.
// It returns true when this vote changed the status.
func (a *Agora) IncrementEndVoteCountAndCheckTermination(participants int, now time.Time) (bool, error) {
	if err := a.AcceptsEndVotes(); err != nil {
		return false, err
	}
	a.EndVoteCount++
	if a.Status == StatusRunning && QuorumReached(a.EndVoteCount, participants) {
		a.Status = StatusClosed
		a.ClosedAt = now
		return true, nil
	}
	return false, nil
}

// Expire closes a running agora whose duration has elapsed.
func (a *Agora) Expire(now time.Time) error {
	if a.Status != StatusRunning || !a.Expired(now) {
		return a.invalidTransition(StatusClosed)
	}
	a.Status = StatusClosed
	a.ClosedAt = now
	return nil
}

// Expired reports whether a running agora outlived its duration.
// A zero duration never expires.
func (a Agora) Expired(now time.Time) bool {
	if a.Status != StatusRunning || a.Duration <= 0 {
		return false
	}
	return !now.Before(a.StartedAt.Add(a.Duration))
}

// Complete is the terminal transition.
func (a *Agora) Complete() error {
	if a.Status != StatusClosed {
		return a.invalidTransition(StatusCompleted)
	}
	a.Status = StatusCompleted
	return nil
}

func (a Agora) invalidTransition(to Status) error {
	return fmt.Errorf("%w: agora %d cannot go from %s to %s",
		errors.ErrInvalidTransition, a.ID, a.Status, to)
}

// QuorumReached is the unanimity rule: every current participant voted.
// An agora without participants never reaches quorum.
func QuorumReached(endVotes, participants int) bool {
	if participants <= 0 {
		return false
	}
	return endVotes >= participants
}
