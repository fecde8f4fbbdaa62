package agora

import "time"

type ChatType string

const (
	ChatTypeSystem ChatType = "SYSTEM"
	ChatTypeUser   ChatType = "USER"
)

// Author is the membership snapshot a chat was written under.
type Author struct {
	MembershipID int64
	UserID       UserID
	Role         Role
	Nickname     string
	AvatarIndex  int
}

// Chat is immutable once created.
type Chat struct {
	ID        int64
	AgoraID   ID
	Type      ChatType
	Content   string
	Author    Author
	CreatedAt time.Time
}

func NewUserChat(m Membership, content string, now time.Time) Chat {
	return Chat{
		AgoraID:   m.AgoraID,
		Type:      ChatTypeUser,
		Content:   content,
		Author:    m.Author(),
		CreatedAt: now,
	}
}

// Topic is the fan-out destination of an agora's chats.
func Topic(id ID) string {
	return "session/" + id.String() + "/chats"
}
