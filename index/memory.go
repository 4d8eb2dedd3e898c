package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/adi0900/RegLex-AI/models"
)

// CorpusEntry is one regulation passage with its precomputed embedding,
// as produced by the offline corpus build.
type CorpusEntry struct {
	DocID     string    `json:"doc_id"`
	ClauseID  string    `json:"clause_id"`
	ChunkID   string    `json:"chunk_id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// MemoryIndex is an exact in-process nearest-neighbor index. It holds the
// whole corpus in memory and scans it per query (squared L2 distance).
type MemoryIndex struct {
	passages []models.RegulationPassage
	vectors  [][]float64
	dims     int
}

// NewMemoryIndex builds an index from corpus entries. Entries whose
// embedding dimensionality does not match the first entry are skipped.
func NewMemoryIndex(entries []CorpusEntry) *MemoryIndex {
	idx := &MemoryIndex{}
	for _, entry := range entries {
		if len(entry.Embedding) == 0 {
			continue
		}
		if idx.dims == 0 {
			idx.dims = len(entry.Embedding)
		}
		if len(entry.Embedding) != idx.dims {
			continue
		}
		idx.passages = append(idx.passages, models.RegulationPassage{
			DocID:    entry.DocID,
			ClauseID: entry.ClauseID,
			ChunkID:  entry.ChunkID,
			Text:     entry.Text,
		})
		idx.vectors = append(idx.vectors, entry.Embedding)
	}
	return idx
}

// NewMemoryIndexFromFile loads a JSON corpus file (an array of entries).
func NewMemoryIndexFromFile(path string) (*MemoryIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	var entries []CorpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no entries", path)
	}
	return NewMemoryIndex(entries), nil
}

// Size returns the number of indexed passages.
func (m *MemoryIndex) Size() int {
	return len(m.passages)
}

// Search scans the corpus for each query vector and returns up to topK
// hits ordered ascending by distance.
func (m *MemoryIndex) Search(ctx context.Context, queries [][]float64, topK int) ([][]Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	results := make([][]Hit, len(queries))
	for qi, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(query) != m.dims {
			return nil, fmt.Errorf("query vector must be %d dimensions, got %d", m.dims, len(query))
		}

		hits := make([]Hit, 0, len(m.vectors))
		for i, vec := range m.vectors {
			hits = append(hits, Hit{Passage: m.passages[i], Distance: squaredL2(query, vec)})
		}
		sort.Slice(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })
		if len(hits) > topK {
			hits = hits[:topK]
		}
		results[qi] = hits
	}
	return results, nil
}

func squaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
