package repositories

import (
	"agora/domain/agora"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IChatRepository interface {
	StoreChat(chat agora.Chat) (agora.Chat, error)
	GetChats(id agora.ID, cursor *string) ([]agora.Chat, *string, error)
}

type ChatRepository struct {
	db            *badger.DB
	log           *slog.Logger
	seq           *badger.Sequence
	limitMessages *int
}

func NewChatRepository(db *badger.DB, log *slog.Logger, limitMessages *int) (*ChatRepository, error) {
	seq, err := db.GetSequence([]byte("seq:chat"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("chat sequence: %w", err)
	}
	return &ChatRepository{db: db, log: log, seq: seq, limitMessages: limitMessages}, nil
}

func (c *ChatRepository) Close() error {
	return c.seq.Release()
}

type DiskChat struct {
	ID           int64
	Agora        int64
	Type         string
	Content      string
	MembershipID int64
	UserID       int64
	Role         string
	Nickname     string
	AvatarIndex  int
	At           time.Time
}

// StoreChat assigns the next chat id and persists the chat under
// "chat:{agora_id}:{chat_id}". Ids come from a single sequence so keys sort
// in creation order within an agora.
func (c *ChatRepository) StoreChat(chat agora.Chat) (agora.Chat, error) {
	id, err := nextID(c.seq)
	if err != nil {
		return agora.Chat{}, err
	}
	chat.ID = id
	err = c.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, chatKey(chat.AgoraID, chat.ID), fromChat(chat))
	})
	if err != nil {
		return agora.Chat{}, err
	}
	return chat, nil
}

// GetChats walks an agora's chats from the newest one backwards.
// The returned cursor is the key suffix of the last chat read; pass it back
// to continue with older chats.
func (c *ChatRepository) GetChats(id agora.ID, cursor *string) ([]agora.Chat, *string, error) {
	var diskChats []DiskChat
	var lastKey string
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := chatPrefix(id)
		prefixLen := len(prefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		default:
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if c.limitMessages != nil && len(diskChats) == *c.limitMessages {
				c.log.Debug(fmt.Sprintf("Maximum of %d chats reached", *c.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			var dc DiskChat
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &dc)
			}); err != nil {
				return err
			}
			diskChats = append(diskChats, dc)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(diskChats) == 0 {
		return nil, nil, nil
	}
	return lo.Map(diskChats, func(item DiskChat, _ int) agora.Chat {
		return toChat(item)
	}), &lastKey, nil
}

func fromChat(chat agora.Chat) DiskChat {
	return DiskChat{
		ID:           chat.ID,
		Agora:        int64(chat.AgoraID),
		Type:         string(chat.Type),
		Content:      chat.Content,
		MembershipID: chat.Author.MembershipID,
		UserID:       int64(chat.Author.UserID),
		Role:         string(chat.Author.Role),
		Nickname:     chat.Author.Nickname,
		AvatarIndex:  chat.Author.AvatarIndex,
		At:           chat.CreatedAt,
	}
}

func toChat(dc DiskChat) agora.Chat {
	return agora.Chat{
		ID:      dc.ID,
		AgoraID: agora.ID(dc.Agora),
		Type:    agora.ChatType(dc.Type),
		Content: dc.Content,
		Author: agora.Author{
			MembershipID: dc.MembershipID,
			UserID:       agora.UserID(dc.UserID),
			Role:         agora.Role(dc.Role),
			Nickname:     dc.Nickname,
			AvatarIndex:  dc.AvatarIndex,
		},
		CreatedAt: dc.At.UTC(),
	}
}
