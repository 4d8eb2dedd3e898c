package index

import (
	"context"

	"github.com/adi0900/RegLex-AI/models"
)

// Hit is one nearest-neighbor result for a query vector.
type Hit struct {
	Passage  models.RegulationPassage
	Distance float64
}

// Index performs approximate nearest-neighbor search over the regulation
// corpus. The corpus is loaded once and read-only, so implementations are
// safe for concurrent queries. Search returns, for each query vector, up
// to topK hits ordered ascending by distance; invalid slots are dropped,
// so a query may yield fewer than topK hits.
type Index interface {
	Search(ctx context.Context, queries [][]float64, topK int) ([][]Hit, error)
}
