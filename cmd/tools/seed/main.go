// Seed loads categories and users from a YAML file into the store.
// Categories and users are owned by other systems; this tool stands in
// for them in development.
package main

import (
	"agora/domain/agora"
	"agora/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout, e.g.
//
//	categories:
//	  - {id: 1, name: Society}
//	  - {id: 2, parent: 1, name: Environment}
//	users:
//	  - {id: 1, name: alice}
type SeedFile struct {
	Categories []SeedCategory `yaml:"categories"`
	Users      []SeedUser     `yaml:"users"`
}

type SeedCategory struct {
	ID     int64  `yaml:"id"`
	Parent *int64 `yaml:"parent,omitempty"`
	Name   string `yaml:"name"`
}

type SeedUser struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	file := flag.String("file", "seed.yaml", "YAML file to load")
	maxDepth := flag.Int("max-depth", 16, "Maximum category depth")
	flag.Parse()

	seed, err := loadSeed(*file)
	if err != nil {
		log.Fatal(err)
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	categories := repositories.NewCategoryRepository(db)
	if err := apply(seed, categories, repositories.NewUserRepository(db), *maxDepth, time.Now().UTC()); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Seeded %d categories and %d users\n", len(seed.Categories), len(seed.Users))
}

func loadSeed(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("reading seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return seed, nil
}

type categoryStore interface {
	agora.CategoryFinder
	SaveCategory(category agora.Category) error
}

// apply writes every category with its level, then checks that each one
// resolves to a root, so a bad file fails here rather than at search time.
func apply(seed SeedFile, categories categoryStore, users repositories.IUserRepository, maxDepth int, now time.Time) error {
	byID := make(map[int64]SeedCategory, len(seed.Categories))
	for _, c := range seed.Categories {
		if _, ok := byID[c.ID]; ok {
			return fmt.Errorf("category %d is declared twice", c.ID)
		}
		byID[c.ID] = c
	}

	for _, c := range seed.Categories {
		category := agora.Category{ID: agora.CategoryID(c.ID), Name: c.Name, Level: level(c, byID, maxDepth)}
		if c.Parent != nil {
			parent := agora.CategoryID(*c.Parent)
			category.ParentID = &parent
		}
		if err := categories.SaveCategory(category); err != nil {
			return fmt.Errorf("saving category %d: %w", c.ID, err)
		}
	}

	resolver := agora.NewHierarchyResolver(categories, maxDepth)
	for _, c := range seed.Categories {
		if _, err := resolver.AncestorChain(agora.CategoryID(c.ID)); err != nil {
			return err
		}
	}

	for _, u := range seed.Users {
		user := repositories.User{ID: agora.UserID(u.ID), Name: u.Name, CreatedAt: now}
		if err := users.SaveUser(user); err != nil {
			return fmt.Errorf("saving user %d: %w", u.ID, err)
		}
	}
	return nil
}

// level counts the parents found in the file; a chain leaving the file or
// looping stops counting and is rejected by the resolver afterwards.
func level(c SeedCategory, byID map[int64]SeedCategory, maxDepth int) int {
	n := 0
	for c.Parent != nil && n <= maxDepth {
		parent, ok := byID[*c.Parent]
		if !ok {
			break
		}
		n++
		c = parent
	}
	return n
}
