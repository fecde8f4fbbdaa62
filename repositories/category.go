package repositories

import (
	"agora/domain/agora"
	"agora/errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// CategoryRepository reads the category forest. Writes only come from the
// seeding tool; the running service never mutates categories.
type CategoryRepository struct {
	db *badger.DB
}

func NewCategoryRepository(db *badger.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (c *CategoryRepository) FindCategory(id agora.CategoryID) (agora.Category, error) {
	var category agora.Category
	err := c.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, categoryKey(id), &category)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return agora.Category{}, fmt.Errorf("%w: id=%d", errors.ErrCategoryNotFound, id)
	}
	return category, err
}

func (c *CategoryRepository) SaveCategory(category agora.Category) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, categoryKey(category.ID), category)
	})
}

func (c *CategoryRepository) List() ([]agora.Category, error) {
	var res []agora.Category
	err := c.db.View(func(txn *badger.Txn) (err error) {
		res, err = scanJSON[agora.Category](txn, []byte("category:"))
		return err
	})
	return res, err
}
