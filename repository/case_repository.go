package repository

import (
	"context"
	"fmt"
	"strings"

	"peoplescourt-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Comment authors and bodies excluded when hydrating top comments. The
// corpus keeps bot verdicts and moderation stubs for labeling purposes;
// they are useless as deliberation evidence.
var (
	botAuthors     = []string{"AutoModerator", "AITA-Bot", "JudgementBot", "AITA-Verdict-Bot"}
	removedMarkers = []string{"[deleted]", "[removed]"}
)

// CaseRepository handles read-only corpus access: vector search, keyword
// search, and batch hydration of cases and their top comments.
type CaseRepository struct {
	db  *pgxpool.Pool
	dim int
}

// NewCaseRepository creates a case repository. dim is the expected
// embedding dimensionality of the corpus vectors.
func NewCaseRepository(db *pgxpool.Pool, dim int) *CaseRepository {
	return &CaseRepository{db: db, dim: dim}
}

// formatVector formats an embedding vector as a pgvector literal for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SearchByVector returns the top cases by cosine similarity to the query
// embedding, restricted to cases carrying one of the closed verdict labels.
// Scores are cosine similarities (1 - cosine distance), descending.
func (r *CaseRepository) SearchByVector(
	ctx context.Context,
	embedding []float64,
	limit int,
) ([]models.RankedHit, error) {
	if len(embedding) != r.dim {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", r.dim, len(embedding))
	}

	query := `
		SELECT e.case_id, 1 - (e.embedding <=> $1::vector) AS similarity
		FROM case_embeddings e
		JOIN cases c ON e.case_id = c.id
		WHERE c.verdict = ANY($2)
		ORDER BY similarity DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), models.AllVerdicts(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	defer rows.Close()

	var hits []models.RankedHit
	for rows.Next() {
		var hit models.RankedHit
		if err := rows.Scan(&hit.ID, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan vector hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector hits: %w", err)
	}

	return hits, nil
}

// SearchByKeyword runs a BM25 full-text query (ParadeDB) over case titles
// and bodies, titles double-weighted, same verdict-label restriction.
// The keyword query must already be sanitized of query-syntax characters.
func (r *CaseRepository) SearchByKeyword(
	ctx context.Context,
	keywordQuery string,
	limit int,
) ([]models.RankedHit, error) {
	if strings.TrimSpace(keywordQuery) == "" {
		return nil, nil
	}

	query := `
		SELECT id, paradedb.score(cases) AS bm25_score
		FROM cases
		WHERE cases @@@ $1
		AND verdict = ANY($2)
		ORDER BY bm25_score DESC
		LIMIT $3`

	searchExpr := fmt.Sprintf("title:(%s)^2 OR body:(%s)", keywordQuery, keywordQuery)

	rows, err := r.db.Query(ctx, query, searchExpr, models.AllVerdicts(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	defer rows.Close()

	var hits []models.RankedHit
	for rows.Next() {
		var hit models.RankedHit
		if err := rows.Scan(&hit.ID, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan keyword hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keyword hits: %w", err)
	}

	return hits, nil
}

// GetByIDs batch-fetches full case documents for the given ids. Comments
// are not populated here; use GetTopComments.
func (r *CaseRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.CaseDocument, error) {
	if len(ids) == 0 {
		return map[string]models.CaseDocument{}, nil
	}

	query := `
		SELECT id, title, body, verdict, score
		FROM cases
		WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cases: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]models.CaseDocument)
	for rows.Next() {
		var doc models.CaseDocument
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body, &doc.Verdict, &doc.Score); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		docs[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cases: %w", err)
	}

	return docs, nil
}

// GetTopComments batch-fetches up to perCase highest-scoring top-level
// comments per case, excluding deleted bodies and known bot authors.
func (r *CaseRepository) GetTopComments(
	ctx context.Context,
	ids []string,
	perCase int,
) (map[string][]models.TopComment, error) {
	if len(ids) == 0 {
		return map[string][]models.TopComment{}, nil
	}

	query := `
		SELECT case_id, author, body, score
		FROM case_comments
		WHERE case_id = ANY($1)
		AND is_top_level = true
		AND NOT (body = ANY($2))
		AND NOT (author = ANY($3))
		ORDER BY score DESC`

	rows, err := r.db.Query(ctx, query, ids, removedMarkers, botAuthors)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}
	defer rows.Close()

	comments := make(map[string][]models.TopComment)
	for rows.Next() {
		var caseID string
		var c models.TopComment
		if err := rows.Scan(&caseID, &c.Author, &c.Body, &c.Score); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if len(comments[caseID]) < perCase {
			comments[caseID] = append(comments[caseID], c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
