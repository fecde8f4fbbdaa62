package services

import (
	"agora/contract"
	"agora/domain/agora"
	"agora/domain/event"
	"agora/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IChatService interface {
	Send(ctx context.Context, cmd agora.SendChatCommand) (agora.Chat, error)
	History(cmd agora.HistoryCommand) ([]agora.Chat, *string, error)
	Subscribe(id agora.ID, sink contract.EventSink) (string, error)
	Unsubscribe(subscriptionID string, id agora.ID)
}

type Censor interface {
	Censor(content string) string
}

type ChatService struct {
	log        *slog.Logger
	agoras     repositories.IAgoraRepository
	chats      repositories.IChatRepository
	users      repositories.IUserRepository
	censor     Censor
	dispatcher contract.IDispatcher
	registry   contract.IRegistry
}

func NewChatService(log *slog.Logger, agoras repositories.IAgoraRepository, chats repositories.IChatRepository,
	users repositories.IUserRepository, censor Censor, dispatcher contract.IDispatcher,
	registry contract.IRegistry) *ChatService {
	return &ChatService{
		log:        log,
		agoras:     agoras,
		chats:      chats,
		users:      users,
		censor:     censor,
		dispatcher: dispatcher,
		registry:   registry,
	}
}

// Send stores a chat written by a member and hands it to the fan-out of
// its agora. The sender receives it back through its own subscription.
// History is the durable record: once stored the chat is returned, even
// when the broadcast could not be queued.
func (s *ChatService) Send(ctx context.Context, cmd agora.SendChatCommand) (agora.Chat, error) {
	if err := cmd.Validate(); err != nil {
		return agora.Chat{}, err
	}
	if _, err := s.agoras.Get(cmd.AgoraID); err != nil {
		return agora.Chat{}, err
	}
	if _, err := s.users.FindByID(cmd.UserID); err != nil {
		return agora.Chat{}, err
	}
	member, err := s.agoras.Membership(cmd.AgoraID, cmd.UserID)
	if err != nil {
		return agora.Chat{}, err
	}

	chat := agora.NewUserChat(member, s.censor.Censor(cmd.Content), time.Now().UTC())
	stored, err := s.chats.StoreChat(chat)
	if err != nil {
		return agora.Chat{}, fmt.Errorf("store chat: %w", err)
	}
	if err := s.dispatcher.Dispatch(ctx, event.NewChatPosted(stored)); err != nil {
		s.log.Warn("Chat stored but not broadcast", "agora_id", cmd.AgoraID,
			"chat_id", stored.ID, "error", err)
	}
	return stored, nil
}

func (s *ChatService) History(cmd agora.HistoryCommand) ([]agora.Chat, *string, error) {
	if _, err := s.agoras.Get(cmd.AgoraID); err != nil {
		return nil, nil, err
	}
	return s.chats.GetChats(cmd.AgoraID, cmd.Cursor)
}

// Subscribe attaches a sink to the agora topic until Unsubscribe is called
// with the returned subscription id.
func (s *ChatService) Subscribe(id agora.ID, sink contract.EventSink) (string, error) {
	if _, err := s.agoras.Get(id); err != nil {
		return "", err
	}
	subscriptionID := uuid.NewString()
	s.registry.Subscribe(subscriptionID, id, sink)
	s.log.Debug("Subscribed to agora topic", "agora_id", id, "topic", agora.Topic(id))
	return subscriptionID, nil
}

func (s *ChatService) Unsubscribe(subscriptionID string, id agora.ID) {
	s.registry.Unsubscribe(subscriptionID, id)
	s.log.Debug("Unsubscribed from agora topic", "agora_id", id)
}
