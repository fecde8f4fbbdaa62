package services

import (
	"agora/domain/agora"
	"agora/repositories"
	"context"
)

type ISearchService interface {
	ByKeyword(ctx context.Context, query agora.SearchQuery) (agora.Page, error)
	ByCategory(ctx context.Context, query agora.SearchQuery) (agora.Page, error)
}

type Searcher interface {
	Search(ctx context.Context, filter repositories.SearchFilter) ([]agora.Summary, *agora.ID, error)
}

type AncestorResolver interface {
	AncestorChain(id agora.CategoryID) ([]agora.CategoryID, error)
}

type SearchService struct {
	searcher Searcher
	resolver AncestorResolver
	agoras   repositories.IAgoraRepository
	pageSize int
}

func NewSearchService(searcher Searcher, resolver AncestorResolver,
	agoras repositories.IAgoraRepository, pageSize int) *SearchService {
	return &SearchService{searcher: searcher, resolver: resolver, agoras: agoras, pageSize: pageSize}
}

func (s *SearchService) ByKeyword(ctx context.Context, query agora.SearchQuery) (agora.Page, error) {
	return s.page(ctx, repositories.SearchFilter{
		Keyword:  query.Keyword,
		Statuses: query.Statuses,
		Next:     query.Next,
		Limit:    s.pageSize,
	})
}

// ByCategory matches agoras whose category lies on the ancestor chain of the
// requested one, the requested category included.
func (s *SearchService) ByCategory(ctx context.Context, query agora.SearchQuery) (agora.Page, error) {
	if query.CategoryID == nil {
		return s.ByKeyword(ctx, query)
	}
	chain, err := s.resolver.AncestorChain(*query.CategoryID)
	if err != nil {
		return agora.Page{}, err
	}
	return s.page(ctx, repositories.SearchFilter{
		CategoryIDs: chain,
		Statuses:    query.Statuses,
		Next:        query.Next,
		Limit:       s.pageSize,
	})
}

func (s *SearchService) page(ctx context.Context, filter repositories.SearchFilter) (agora.Page, error) {
	summaries, next, err := s.searcher.Search(ctx, filter)
	if err != nil {
		return agora.Page{}, err
	}
	for i := range summaries {
		count, err := s.agoras.CountMemberships(summaries[i].ID)
		if err != nil {
			return agora.Page{}, err
		}
		summaries[i].Participants = count
	}
	return agora.Page{Agoras: summaries, Next: next}, nil
}
