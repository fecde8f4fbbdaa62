package repositories

import (
	"agora/domain/agora"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/search"
)

const (
	fieldID        = "id"
	fieldTitle     = "title"
	fieldColor     = "color"
	fieldStatus    = "status"
	fieldCategory  = "category"
	fieldCapacity  = "capacity"
	fieldCreatedAt = "created_at"
)

// SearchFilter narrows agoras by title keyword and/or category ids and
// statuses. Empty slices do not filter. Next is an exclusive upper id bound.
type SearchFilter struct {
	Keyword     string
	CategoryIDs []agora.CategoryID
	Statuses    []agora.Status
	Next        *agora.ID
	Limit       int
}

// SearchIndex keeps a Bluge document per agora so that browse and search
// queries never scan the key-value store.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index inserts or replaces the document of an agora.
func (s *SearchIndex) Index(a agora.Agora) error {
	doc := bluge.NewDocument(a.ID.String()).
		AddField(bluge.NewNumericField(fieldID, float64(a.ID)).StoreValue().Sortable()).
		AddField(bluge.NewTextField(fieldTitle, a.Title).StoreValue()).
		AddField(bluge.NewKeywordField(fieldColor, a.Color).StoreValue()).
		AddField(bluge.NewKeywordField(fieldStatus, string(a.Status)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldCategory, a.CategoryID.String()).StoreValue()).
		AddField(bluge.NewNumericField(fieldCapacity, float64(a.Capacity)).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, a.CreatedAt).StoreValue())
	if err := s.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index agora %d: %w", a.ID, err)
	}
	return nil
}

// Search returns one page of summaries ordered by descending id, and the
// cursor of the next page when more results exist.
func (s *SearchIndex) Search(ctx context.Context, filter SearchFilter) ([]agora.Summary, *agora.ID, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	request := bluge.NewTopNSearch(filter.Limit+1, buildQuery(filter)).
		SortBy([]string{"-" + fieldID})
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, nil, fmt.Errorf("search agoras: %w", err)
	}

	var summaries []agora.Summary
	match, err := iterator.Next()
	for err == nil && match != nil {
		summary, decodeErr := toSummary(match)
		if decodeErr != nil {
			return nil, nil, decodeErr
		}
		summaries = append(summaries, summary)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("iterate agoras: %w", err)
	}

	if len(summaries) <= filter.Limit {
		return summaries, nil, nil
	}
	summaries = summaries[:filter.Limit]
	next := summaries[len(summaries)-1].ID
	return summaries, &next, nil
}

func buildQuery(filter SearchFilter) bluge.Query {
	query := bluge.NewBooleanQuery().AddMust(bluge.NewMatchAllQuery())

	if filter.Next != nil {
		query.AddMust(bluge.NewNumericRangeInclusiveQuery(0, float64(*filter.Next), true, false).
			SetField(fieldID))
	}

	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		title := bluge.NewBooleanQuery().
			AddShould(bluge.NewMatchQuery(keyword).SetField(fieldTitle)).
			AddShould(bluge.NewPrefixQuery(strings.ToLower(keyword)).SetField(fieldTitle)).
			SetMinShould(1)
		query.AddMust(title)
	}
	if len(filter.CategoryIDs) > 0 {
		categories := bluge.NewBooleanQuery().SetMinShould(1)
		for _, id := range filter.CategoryIDs {
			categories.AddShould(bluge.NewTermQuery(id.String()).SetField(fieldCategory))
		}
		query.AddMust(categories)
	}
	if len(filter.Statuses) > 0 {
		statuses := bluge.NewBooleanQuery().SetMinShould(1)
		for _, st := range filter.Statuses {
			statuses.AddShould(bluge.NewTermQuery(string(st)).SetField(fieldStatus))
		}
		query.AddMust(statuses)
	}
	return query
}

func toSummary(match *search.DocumentMatch) (agora.Summary, error) {
	var summary agora.Summary
	var decodeErr error
	err := match.VisitStoredFields(func(field string, value []byte) bool {
		switch field {
		case fieldID:
			var id float64
			id, decodeErr = bluge.DecodeNumericFloat64(value)
			summary.ID = agora.ID(id)
		case fieldTitle:
			summary.Title = string(value)
		case fieldColor:
			summary.Color = string(value)
		case fieldStatus:
			summary.Status = agora.Status(value)
		case fieldCategory:
			var id int64
			id, decodeErr = strconv.ParseInt(string(value), 10, 64)
			summary.CategoryID = agora.CategoryID(id)
		case fieldCapacity:
			var capacity float64
			capacity, decodeErr = bluge.DecodeNumericFloat64(value)
			summary.Capacity = int(capacity)
		case fieldCreatedAt:
			summary.CreatedAt, decodeErr = bluge.DecodeDateTime(value)
		}
		return decodeErr == nil
	})
	if err != nil {
		return agora.Summary{}, fmt.Errorf("read stored fields: %w", err)
	}
	if decodeErr != nil {
		return agora.Summary{}, fmt.Errorf("decode stored field: %w", decodeErr)
	}
	return summary, nil
}
