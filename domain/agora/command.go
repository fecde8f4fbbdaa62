package agora

import (
	"agora/errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateAgoraCommand struct {
	Title      string        `validate:"required,max=100"`
	Capacity   int           `validate:"min=1,max=500"`
	Duration   time.Duration `validate:"gte=0"`
	Color      string        `validate:"required,hexcolor"`
	CategoryID CategoryID    `validate:"required"`
}

type JoinCommand struct {
	AgoraID     ID     `validate:"required"`
	UserID      UserID `validate:"required"`
	Role        Role   `validate:"required,oneof=PROS CONS OBSERVER"`
	Nickname    string `validate:"required,max=30"`
	AvatarIndex int    `validate:"min=0,max=99"`
}

type SendChatCommand struct {
	AgoraID ID     `validate:"required"`
	UserID  UserID `validate:"required"`
	Content string `validate:"required,max=1000"`
}

type HistoryCommand struct {
	AgoraID ID
	Cursor  *string
}

// SearchQuery selects agoras by keyword or by category, newest first.
// Next is the id of the last agora of the previous page.
type SearchQuery struct {
	Keyword    string
	CategoryID *CategoryID
	Statuses   []Status
	Next       *ID
}

// Summary is the lightweight view returned by searches.
type Summary struct {
	ID           ID
	Title        string
	Color        string
	Status       Status
	CategoryID   CategoryID
	Capacity     int
	Participants int
	CreatedAt    time.Time
}

// Page is one slice of search results. Next is nil on the last page.
type Page struct {
	Agoras []Summary
	Next   *ID
}

func (c CreateAgoraCommand) Validate() error { return check(c) }

func (c JoinCommand) Validate() error { return check(c) }

func (c SendChatCommand) Validate() error { return check(c) }

func check(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}

// ParseStatuses maps a client status filter onto statuses.
// "active" selects agoras people can still take part in, "closed" the ended ones.
func ParseStatuses(filter string) ([]Status, error) {
	switch filter {
	case "", "all":
		return nil, nil
	case "active":
		return []Status{StatusPending, StatusRunning}, nil
	case "closed":
		return []Status{StatusClosed, StatusCompleted}, nil
	}
	s := Status(filter)
	switch s {
	case StatusPending, StatusRunning, StatusClosed, StatusCompleted:
		return []Status{s}, nil
	}
	return nil, fmt.Errorf("%w: unknown status filter %q", errors.ErrInvalidRequest, filter)
}
