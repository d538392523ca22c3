package service

import (
	"context"
	"fmt"
	"strings"

	"peoplescourt-backend/models"
)

// searchLimit is how many hits each retrieval source contributes to fusion
const searchLimit = 20

// topCommentsPerCase caps the comments hydrated per precedent
const topCommentsPerCase = 3

// CaseStore is the read-only corpus access the retrieval coordinator needs.
// Implemented by repository.CaseRepository.
type CaseStore interface {
	SearchByVector(ctx context.Context, embedding []float64, limit int) ([]models.RankedHit, error)
	SearchByKeyword(ctx context.Context, keywordQuery string, limit int) ([]models.RankedHit, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.CaseDocument, error)
	GetTopComments(ctx context.Context, ids []string, perCase int) (map[string][]models.TopComment, error)
}

// RetrievalService drives one hybrid search pass: vector query, keyword
// query, RRF fusion, and precedent hydration.
type RetrievalService struct {
	store CaseStore
}

// RetrievalServiceOption is a functional option for RetrievalService
type RetrievalServiceOption func(*RetrievalService)

// RetrievalWithCaseStore sets the corpus store
func RetrievalWithCaseStore(store CaseStore) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.store = store
	}
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(opts ...RetrievalServiceOption) *RetrievalService {
	s := &RetrievalService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RetrievalResult carries the hydrated precedents plus the full raw rank
// lists for diagnostics
type RetrievalResult struct {
	Precedents   []models.Precedent
	VectorHits   []models.RankedHit
	KeywordHits  []models.RankedHit
	FusedRanking []models.RankedHit
}

// sanitizeKeywordQuery reduces a raw scenario to a safe BM25 query: only
// the first line is used, and characters special to the query syntax are
// replaced with spaces.
func sanitizeKeywordQuery(scenario string) string {
	firstLine := strings.TrimSpace(strings.SplitN(scenario, "\n", 2)[0])
	replacer := strings.NewReplacer(
		":", " ", "(", " ", ")", " ", "[", " ", "]", " ",
		`"`, " ", "?", " ", "*", " ", "-", " ", "/", " ", `\`, " ",
	)
	return replacer.Replace(firstLine)
}

// Retrieve performs hybrid search (vector + BM25) and hydrates the top-k
// fused cases into precedents. Non-positive k falls back to the default
// precedent count. An empty fused ranking is a valid outcome:
// the result carries an empty precedent list alongside the raw diagnostic
// lists, and no error is returned.
func (s *RetrievalService) Retrieve(
	ctx context.Context,
	scenarioVector []float64,
	scenarioText string,
	k int,
) (*RetrievalResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("case store not set")
	}
	if k <= 0 {
		k = defaultPrecedentCount
	}

	vectorHits, err := s.store.SearchByVector(ctx, scenarioVector, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	keywordHits, err := s.store.SearchByKeyword(ctx, sanitizeKeywordQuery(scenarioText), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	fused := FuseRanks(vectorHits, keywordHits)

	topIDs := make([]string, 0, k)
	for _, hit := range fused {
		if len(topIDs) == k {
			break
		}
		topIDs = append(topIDs, hit.ID)
	}

	result := &RetrievalResult{
		Precedents:   []models.Precedent{},
		VectorHits:   vectorHits,
		KeywordHits:  keywordHits,
		FusedRanking: fused,
	}
	if len(topIDs) == 0 {
		return result, nil
	}

	docs, err := s.store.GetByIDs(ctx, topIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate cases: %w", err)
	}

	comments, err := s.store.GetTopComments(ctx, topIDs, topCommentsPerCase)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate comments: %w", err)
	}

	fusedScores := make(map[string]float64, len(fused))
	for _, hit := range fused {
		fusedScores[hit.ID] = hit.Score
	}

	for _, id := range topIDs {
		doc, ok := docs[id]
		if !ok {
			continue
		}
		doc.Comments = comments[id]
		result.Precedents = append(result.Precedents, models.NewHydratedPrecedent(doc, fusedScores[id]))
	}

	return result, nil
}
