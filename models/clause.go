package models

import "strings"

// Clause represents one discrete contractual statement extracted from a
// source document by the upstream extraction step.
type Clause struct {
	ClauseID string `json:"clause_id"`
	Text     string `json:"text"`
}

// IsEmpty reports whether the clause carries no analyzable text.
func (c Clause) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// RegulationPassage is a chunk of authoritative regulatory text from the
// retrieval corpus. The corpus is built offline and read-only at runtime.
type RegulationPassage struct {
	DocID    string `json:"doc_id"`
	ClauseID string `json:"clause_id"`
	ChunkID  string `json:"chunk_id"`
	Text     string `json:"text"`
}

// RetrievalMatch is one retrieved passage for a clause, ordered ascending
// by distance (closer = more relevant).
type RetrievalMatch struct {
	ClauseID string            `json:"clause_id"`
	Passage  RegulationPassage `json:"passage"`
	Rank     int               `json:"rank"`
	Distance float64           `json:"distance"`
}

// ClauseMatches pairs a clause with its retrieved regulation matches.
// A clause may legitimately have fewer matches than requested, or zero.
type ClauseMatches struct {
	Clause  Clause           `json:"clause"`
	Matches []RetrievalMatch `json:"matches"`
}
