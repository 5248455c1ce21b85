package service

import (
	"context"
	"sort"
	"strings"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/embedding"
	"github.com/kontext-dev/kontext/internal/telemetry"
	"github.com/kontext-dev/kontext/internal/vector"
)

const (
	// DefaultSearchK bounds result sets when the caller does not ask for a size.
	DefaultSearchK = 10
	// DefaultSearchThreshold drops matches below weak relevance.
	DefaultSearchThreshold = 0.3
)

// SearchService answers similarity queries over the in-memory index, with
// a lexical fallback when no embedding capability is configured.
type SearchService struct {
	units    UnitRepositoryInterface
	embedder embedding.Client
	index    *vector.Index
}

// NewSearchService creates a new SearchService instance
func NewSearchService(units UnitRepositoryInterface, embedder embedding.Client, index *vector.Index) *SearchService {
	return &SearchService{
		units:    units,
		embedder: embedder,
		index:    index,
	}
}

// SearchInput represents a similarity query
type SearchInput struct {
	// ProjectName is optional; empty searches across projects.
	ProjectName string
	Query       string
	K           int
	Threshold   float64
}

// SearchResult pairs a stored unit with its relevance score. Lexical marks
// results from the fallback path, whose scores are term-overlap ratios
// rather than vector similarities.
type SearchResult struct {
	Unit    *domain.KnowledgeUnit `json:"unit"`
	Score   float64               `json:"score"`
	Lexical bool                  `json:"lexical"`
}

// Search returns up to K results ordered by descending score. A negative K
// is a caller bug and fails hard; everything else degrades.
func (s *SearchService) Search(ctx context.Context, input SearchInput) ([]*SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		ProjectName: input.ProjectName,
		Operation:   "search",
	})
	defer span.End()

	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrMissingQuery
	}
	if input.K < 0 {
		return nil, domain.ErrNegativeK
	}

	k := input.K
	if k == 0 {
		k = DefaultSearchK
	}
	threshold := input.Threshold
	if threshold == 0 {
		threshold = DefaultSearchThreshold
	}

	if !s.embedder.Available() {
		return s.searchLexical(ctx, input.ProjectName, input.Query, k)
	}

	queryVec, err := s.embedder.Embed(ctx, input.Query)
	if err != nil {
		// The model is configured but unreachable; degrade the query the
		// same way an unconfigured model would.
		telemetry.CaptureError(ctx, err)
		return s.searchLexical(ctx, input.ProjectName, input.Query, k)
	}

	// Over-fetch when filtering by project: the index is global and the
	// filter is applied after hydration.
	fetchK := k
	if input.ProjectName != "" {
		fetchK = k * 4
	}

	matches, err := s.index.Search(queryVec, fetchK, threshold)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(matches) == 0 {
		return []*SearchResult{}, nil
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
		scores[m.ID] = m.Score
	}

	units, err := s.units.GetByIDs(ctx, ids)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results := make([]*SearchResult, 0, len(units))
	for _, u := range units {
		if input.ProjectName != "" && u.ProjectName != input.ProjectName {
			continue
		}
		results = append(results, &SearchResult{Unit: u, Score: scores[u.ID]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// searchLexical ranks by case-insensitive term overlap between the query
// and the content, so multi-word queries still order sensibly.
func (s *SearchService) searchLexical(ctx context.Context, projectName, query string, k int) ([]*SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))

	// The repository matches the whole query as a substring; retry with the
	// first term when the full phrase finds nothing.
	units, err := s.units.SearchLexical(ctx, projectName, query, k)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 && len(terms) > 1 {
		units, err = s.units.SearchLexical(ctx, projectName, terms[0], k)
		if err != nil {
			return nil, err
		}
	}

	results := make([]*SearchResult, 0, len(units))
	for _, u := range units {
		results = append(results, &SearchResult{
			Unit:    u,
			Score:   termOverlap(terms, u.Content),
			Lexical: true,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// termOverlap returns the fraction of query terms present in the content.
func termOverlap(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
