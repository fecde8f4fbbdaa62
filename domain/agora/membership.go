package agora

import (
	"agora/errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePros     Role = "PROS"
	RoleCons     Role = "CONS"
	RoleObserver Role = "OBSERVER"
)

// Membership is the participation of one user in one agora.
// It carries the nickname and role the user picked for this agora only.
type Membership struct {
	ID          int64
	AgoraID     ID
	UserID      UserID
	Role        Role
	Nickname    string
	AvatarIndex int
	UUID        uuid.UUID
	EndVoted    bool
	JoinedAt    time.Time
}

func NewMembership(cmd JoinCommand, now time.Time) Membership {
	return Membership{
		AgoraID:     cmd.AgoraID,
		UserID:      cmd.UserID,
		Role:        cmd.Role,
		Nickname:    cmd.Nickname,
		AvatarIndex: cmd.AvatarIndex,
		UUID:        uuid.New(),
		JoinedAt:    now,
	}
}

func (m Membership) HasVoted() bool {
	return m.EndVoted
}

// MarkEndVoted flips EndVoted once; a second call fails.
func (m *Membership) MarkEndVoted() error {
	if m.EndVoted {
		return fmt.Errorf("%w: user %d in agora %d", errors.ErrAlreadyVoted, m.UserID, m.AgoraID)
	}
	m.EndVoted = true
	return nil
}

func (m Membership) Author() Author {
	return Author{
		MembershipID: m.ID,
		UserID:       m.UserID,
		Role:         m.Role,
		Nickname:     m.Nickname,
		AvatarIndex:  m.AvatarIndex,
	}
}
