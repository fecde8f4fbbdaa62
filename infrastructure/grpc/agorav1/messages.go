package agorav1

import "time"

type CreateAgoraRequest struct {
	Title           string `json:"title"`
	Capacity        int    `json:"capacity"`
	DurationSeconds int64  `json:"duration_seconds"`
	Color           string `json:"color"`
	CategoryID      int64  `json:"category_id"`
}

type GetAgoraRequest struct {
	AgoraID int64 `json:"agora_id"`
}

// AgoraRequest targets an existing agora on behalf of the caller.
type AgoraRequest struct {
	AgoraID int64 `json:"agora_id"`
}

type Agora struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Capacity     int        `json:"capacity"`
	Color        string     `json:"color"`
	CategoryID   int64      `json:"category_id"`
	Status       string     `json:"status"`
	EndVoteCount int        `json:"end_vote_count"`
	Participants int        `json:"participants"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

type JoinAgoraRequest struct {
	AgoraID     int64  `json:"agora_id"`
	Role        string `json:"role"`
	Nickname    string `json:"nickname"`
	AvatarIndex int    `json:"avatar_index"`
}

type JoinAgoraResponse struct {
	AgoraID      int64  `json:"agora_id"`
	MembershipID int64  `json:"membership_id"`
	Handle       string `json:"handle"`
	Role         string `json:"role"`
}

type SendChatRequest struct {
	AgoraID int64  `json:"agora_id"`
	Content string `json:"content"`
}

type GetChatsRequest struct {
	AgoraID int64   `json:"agora_id"`
	Cursor  *string `json:"cursor,omitempty"`
}

type GetChatsResponse struct {
	Chats  []*Chat `json:"chats"`
	Cursor *string `json:"cursor,omitempty"`
}

type ChatAuthor struct {
	MembershipID int64  `json:"membership_id"`
	Role         string `json:"role"`
	Nickname     string `json:"nickname"`
	AvatarIndex  int    `json:"avatar_index"`
}

type Chat struct {
	ID        int64      `json:"id"`
	AgoraID   int64      `json:"agora_id"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	Author    ChatAuthor `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

type SearchByKeywordRequest struct {
	Keyword string `json:"keyword"`
	Status  string `json:"status,omitempty"`
	Next    *int64 `json:"next,omitempty"`
}

type SearchByCategoryRequest struct {
	CategoryID int64  `json:"category_id"`
	Status     string `json:"status,omitempty"`
	Next       *int64 `json:"next,omitempty"`
}

type AgoraSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Color        string    `json:"color"`
	Status       string    `json:"status"`
	CategoryID   int64     `json:"category_id"`
	Capacity     int       `json:"capacity"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

type SearchResponse struct {
	Agoras []*AgoraSummary `json:"agoras"`
	Next   *int64          `json:"next,omitempty"`
}

type SubscribeRequest struct {
	AgoraID int64 `json:"agora_id"`
}

const (
	EventSubscribed = "subscribed"
	EventChat       = "chat"
	EventStatus     = "status"
)

// AgoraEvent is one message of the subscription stream. The first event of
// every stream is EventSubscribed, sent once the subscription is in place.
type AgoraEvent struct {
	Kind    string       `json:"kind"`
	AgoraID int64        `json:"agora_id"`
	Chat    *Chat        `json:"chat,omitempty"`
	Status  *StatusEvent `json:"status,omitempty"`
}

type StatusEvent struct {
	From         string    `json:"from"`
	To           string    `json:"to"`
	EndVoteCount int       `json:"end_vote_count"`
	At           time.Time `json:"at"`
}
