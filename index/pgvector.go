package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgVectorIndex searches the regulation corpus stored in Postgres with
// the pgvector extension. The regulation_chunks table is populated by
// cmd/build-index and treated as read-only here.
type PgVectorIndex struct {
	db         *pgxpool.Pool
	dimensions int
}

// NewPgVectorIndex creates an index backed by a pgvector table.
func NewPgVectorIndex(db *pgxpool.Pool, dimensions int) *PgVectorIndex {
	return &PgVectorIndex{db: db, dimensions: dimensions}
}

// FormatVector formats an embedding vector as a pgvector literal.
func FormatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(embedding))
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Search runs one ordered nearest-neighbor query per clause vector.
func (p *PgVectorIndex) Search(ctx context.Context, queries [][]float64, topK int) ([][]Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	results := make([][]Hit, len(queries))
	for qi, query := range queries {
		if len(query) != p.dimensions {
			return nil, fmt.Errorf("query vector must be %d dimensions, got %d", p.dimensions, len(query))
		}

		hits, err := p.searchOne(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		results[qi] = hits
	}
	return results, nil
}

func (p *PgVectorIndex) searchOne(ctx context.Context, query []float64, topK int) ([]Hit, error) {
	vectorStr := FormatVector(query)

	rows, err := p.db.Query(ctx, `
		SELECT
			doc_id,
			clause_id,
			chunk_id,
			chunk_text,
			embedding <=> $1::vector AS distance
		FROM regulation_chunks
		ORDER BY
			embedding <=> $1::vector
		LIMIT $2`, vectorStr, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query regulation chunks: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		err := rows.Scan(
			&hit.Passage.DocID,
			&hit.Passage.ClauseID,
			&hit.Passage.ChunkID,
			&hit.Passage.Text,
			&hit.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regulation chunk: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regulation chunks: %w", err)
	}

	return hits, nil
}
