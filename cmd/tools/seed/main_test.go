package main

import (
	"agora/domain/agora"
	"agora/errors"
	"agora/repositories"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) (*repositories.CategoryRepository, *repositories.UserRepository) {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.NewCategoryRepository(db), repositories.NewUserRepository(db)
}

func TestSeed_LoadAndApply(t *testing.T) {
	req := require.New(t)

	// Given a seed file with a three level hierarchy
	path := filepath.Join(t.TempDir(), "seed.yaml")
	req.NoError(os.WriteFile(path, []byte(`
categories:
  - {id: 3, parent: 2, name: Climate}
  - {id: 1, name: Society}
  - {id: 2, parent: 1, name: Environment}
users:
  - {id: 7, name: alice}
`), 0o600))
	categories, users := openStores(t)

	// When it is applied
	seed, err := loadSeed(path)
	req.NoError(err)
	req.NoError(apply(seed, categories, users, 16, time.Now().UTC()))

	// Then levels follow the parents and the users exist
	climate, err := categories.FindCategory(3)
	req.NoError(err)
	req.Equal(2, climate.Level)
	req.Equal(agora.CategoryID(2), *climate.ParentID)
	user, err := users.FindByID(7)
	req.NoError(err)
	req.Equal("alice", user.Name)
}

func TestSeed_RejectsBrokenHierarchies(t *testing.T) {
	parent := func(id int64) *int64 { return &id }
	cases := []struct {
		name string
		seed SeedFile
		want error
	}{
		{"dangling parent", SeedFile{Categories: []SeedCategory{{ID: 1, Parent: parent(9), Name: "orphan"}}}, errors.ErrMalformedHierarchy},
		{"cycle", SeedFile{Categories: []SeedCategory{
			{ID: 1, Parent: parent(2), Name: "a"},
			{ID: 2, Parent: parent(1), Name: "b"},
		}}, errors.ErrMalformedHierarchy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			categories, users := openStores(t)
			err := apply(tc.seed, categories, users, 16, time.Now().UTC())
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("duplicate id", func(t *testing.T) {
		categories, users := openStores(t)
		seed := SeedFile{Categories: []SeedCategory{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}}
		require.EqualError(t, apply(seed, categories, users, 16, time.Now().UTC()), "category 1 is declared twice")
	})
}

func TestSeed_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [oops"), 0o600))

	_, err := loadSeed(path)

	require.ErrorContains(t, err, "parsing seed file")
}
