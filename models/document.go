package models

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// DocumentMetadata is the open metadata record stored alongside a
// document's results. The store enriches it with storage details
// (stored_at, document_id) on upsert.
type DocumentMetadata map[string]interface{}

// NewDocumentID generates an opaque document identifier. ULIDs embed a
// millisecond timestamp ahead of the random component, so identifiers
// sort roughly chronologically.
func NewDocumentID() string {
	return "doc_" + ulid.MustNew(ulid.Now(), rand.Reader).String()
}
