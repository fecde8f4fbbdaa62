//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"agora/domain/agora"
	"agora/errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	SaveUser(user User) error
	FindByID(id agora.UserID) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// User is the little this service knows about an account: it exists.
type User struct {
	ID        agora.UserID
	Name      string
	CreatedAt time.Time
}

// SaveUser persists a user coming from the account system.
func (u *UserRepository) SaveUser(user User) error {
	return u.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, userKey(user.ID), user)
	})
}

// FindByID retrieves a user or ErrUserNotFound.
func (u *UserRepository) FindByID(id agora.UserID) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &user)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return User{}, fmt.Errorf("%w: id=%d", errors.ErrUserNotFound, id)
	}
	return user, err
}
