package event

import (
	"agora/domain/agora"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything broadcast on an agora's topic.
type DomainEvent interface {
	AgoraID() agora.ID
}

// ChatPosted carries a stored, moderated chat to subscribers.
type ChatPosted struct {
	ID   uuid.UUID
	Chat agora.Chat
}

func (c ChatPosted) AgoraID() agora.ID {
	return c.Chat.AgoraID
}

// StatusChanged is emitted after every lifecycle transition.
type StatusChanged struct {
	ID           uuid.UUID
	Agora        agora.ID
	From         agora.Status
	To           agora.Status
	EndVoteCount int
	At           time.Time
}

func (s StatusChanged) AgoraID() agora.ID {
	return s.Agora
}

func NewChatPosted(chat agora.Chat) ChatPosted {
	return ChatPosted{ID: uuid.New(), Chat: chat}
}

func NewStatusChanged(before agora.Status, after agora.Agora, at time.Time) StatusChanged {
	return StatusChanged{
		ID:           uuid.New(),
		Agora:        after.ID,
		From:         before,
		To:           after.Status,
		EndVoteCount: after.EndVoteCount,
		At:           at,
	}
}
