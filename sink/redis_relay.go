package sink

import (
	"agora/contract"
	"agora/domain/agora"
	"agora/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ contract.EventSink = RedisRelay{}

// RelayMessage is the JSON published on "session/{id}/chats".
type RelayMessage struct {
	Kind      string    `json:"kind"`
	AgoraID   int64     `json:"agora_id"`
	Type      string    `json:"type,omitempty"`
	Content   string    `json:"content,omitempty"`
	Role      string    `json:"role,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Status    string    `json:"status,omitempty"`
	EndVotes  int       `json:"end_votes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisRelay republishes agora events on Redis pub/sub for consumers living
// outside this process. It is a permanent sink of the fan-out.
type RedisRelay struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisRelay(client *redis.Client, log *slog.Logger) RedisRelay {
	return RedisRelay{client: client, log: log}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func (r RedisRelay) Consume(ctx context.Context, e event.DomainEvent) error {
	msg, ok := toRelayMessage(e)
	if !ok {
		r.log.Debug(fmt.Sprintf("Not relayed event : %T", e))
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal relay message: %w", err)
	}
	if err := r.client.Publish(ctx, agora.Topic(e.AgoraID()), payload).Err(); err != nil {
		return fmt.Errorf("publish relay message: %w", err)
	}
	return nil
}

func toRelayMessage(e event.DomainEvent) (RelayMessage, bool) {
	switch evt := e.(type) {
	case event.ChatPosted:
		return RelayMessage{
			Kind:      "chat",
			AgoraID:   int64(evt.Chat.AgoraID),
			Type:      string(evt.Chat.Type),
			Content:   evt.Chat.Content,
			Role:      string(evt.Chat.Author.Role),
			Nickname:  evt.Chat.Author.Nickname,
			CreatedAt: evt.Chat.CreatedAt,
		}, true
	case event.StatusChanged:
		return RelayMessage{
			Kind:      "status",
			AgoraID:   int64(evt.Agora),
			Status:    string(evt.To),
			EndVotes:  evt.EndVoteCount,
			CreatedAt: evt.At,
		}, true
	default:
		return RelayMessage{}, false
	}
}
