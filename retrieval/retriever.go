package retrieval

import (
	"context"
	"log"
	"time"

	"github.com/adi0900/RegLex-AI/embedding"
	"github.com/adi0900/RegLex-AI/index"
	"github.com/adi0900/RegLex-AI/models"
)

const (
	// DefaultTopK is the number of regulation passages retrieved per clause.
	DefaultTopK = 5

	defaultTimeout = 30 * time.Second

	placeholderDocID = "retrieval-unavailable"
	placeholderText  = "Regulation retrieval was unavailable for this clause; " +
		"no supporting passages could be fetched. Verification proceeds without retrieved evidence."
)

// Retriever maps a batch of clauses to their top-k regulation matches.
type Retriever struct {
	embedder embedding.Provider
	index    index.Index
	timeout  time.Duration
}

// NewRetriever creates a retrieval stage over the given embedder and index.
func NewRetriever(embedder embedding.Provider, idx index.Index) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    idx,
		timeout:  defaultTimeout,
	}
}

// Retrieve encodes all clause texts in one batched call, runs one batched
// index search, and maps hits back to clauses positionally.
//
// Retrieval unavailability must not abort the document: when the embedder
// or the index fails, every clause receives a single synthetic placeholder
// match so downstream stages always see a structurally valid result.
func (r *Retriever) Retrieve(ctx context.Context, clauses []models.Clause, topK int) []models.ClauseMatches {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(clauses) == 0 {
		return nil
	}

	texts := make([]string, len(clauses))
	for i, clause := range clauses {
		texts[i] = clause.Text
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vectors, err := r.embedder.Encode(callCtx, texts)
	if err != nil {
		log.Printf("Warning: Failed to encode clause batch: %v. Falling back to placeholder matches.", err)
		return placeholderResults(clauses)
	}

	hits, err := r.index.Search(callCtx, vectors, topK)
	if err != nil {
		log.Printf("Warning: Regulation index search failed: %v. Falling back to placeholder matches.", err)
		return placeholderResults(clauses)
	}

	results := make([]models.ClauseMatches, len(clauses))
	for i, clause := range clauses {
		matches := make([]models.RetrievalMatch, 0, len(hits[i]))
		for rank, hit := range hits[i] {
			matches = append(matches, models.RetrievalMatch{
				ClauseID: clause.ClauseID,
				Passage:  hit.Passage,
				Rank:     rank,
				Distance: hit.Distance,
			})
		}
		results[i] = models.ClauseMatches{Clause: clause, Matches: matches}
	}
	return results
}

// placeholderResults builds one explanatory synthetic match per clause.
func placeholderResults(clauses []models.Clause) []models.ClauseMatches {
	results := make([]models.ClauseMatches, len(clauses))
	for i, clause := range clauses {
		results[i] = models.ClauseMatches{
			Clause: clause,
			Matches: []models.RetrievalMatch{{
				ClauseID: clause.ClauseID,
				Passage: models.RegulationPassage{
					DocID:   placeholderDocID,
					ChunkID: placeholderDocID,
					Text:    placeholderText,
				},
				Rank:     0,
				Distance: 0,
			}},
		}
	}
	return results
}

// IsPlaceholder reports whether a match is the synthetic fallback emitted
// when retrieval was unavailable.
func IsPlaceholder(m models.RetrievalMatch) bool {
	return m.Passage.DocID == placeholderDocID
}
