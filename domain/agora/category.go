package agora

import (
	"agora/errors"
	"fmt"
	"strconv"
)

type CategoryID int64

func (id CategoryID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Category is a node of the read-only category forest.
// Parents are referenced by id, never by pointer.
type Category struct {
	ID       CategoryID
	ParentID *CategoryID
	Level    int
	Name     string
}

type CategoryFinder interface {
	FindCategory(id CategoryID) (Category, error)
}

// HierarchyResolver walks a category up to its root.
type HierarchyResolver struct {
	finder  CategoryFinder
	maxHops int
}

func NewHierarchyResolver(finder CategoryFinder, maxHops int) HierarchyResolver {
	return HierarchyResolver{finder: finder, maxHops: maxHops}
}

// AncestorChain returns the requested category followed by its parents up to
// the root, e.g. [B, A, root]. A chain longer than maxHops, a cycle or a
// dangling parent reference is reported as ErrMalformedHierarchy.
func (r HierarchyResolver) AncestorChain(id CategoryID) ([]CategoryID, error) {
	current, err := r.finder.FindCategory(id)
	if err != nil {
		return nil, err
	}
	chain := []CategoryID{current.ID}
	seen := map[CategoryID]struct{}{current.ID: {}}

	for current.ParentID != nil {
		if len(chain) > r.maxHops {
			return nil, fmt.Errorf("%w: more than %d hops from category %d",
				errors.ErrMalformedHierarchy, r.maxHops, id)
		}
		parentID := *current.ParentID
		if _, ok := seen[parentID]; ok {
			return nil, fmt.Errorf("%w: cycle through category %d",
				errors.ErrMalformedHierarchy, parentID)
		}
		parent, err := r.finder.FindCategory(parentID)
		if err != nil {
			if errors.Is(err, errors.ErrCategoryNotFound) {
				return nil, fmt.Errorf("%w: category %d has a dangling parent %d",
					errors.ErrMalformedHierarchy, current.ID, parentID)
			}
			return nil, err
		}
		seen[parentID] = struct{}{}
		chain = append(chain, parent.ID)
		current = parent
	}
	return chain, nil
}
