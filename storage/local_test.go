package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/adi0900/RegLex-AI/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStoreMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpsertMetadata(ctx, "doc_01", models.DocumentMetadata{
		"file_name":       "share-purchase-agreement.pdf",
		"total_clauses":   12,
		"compliance_rate": 66.67,
	})
	require.NoError(t, err)

	metadata, found, err := store.GetMetadata(ctx, "doc_01")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "share-purchase-agreement.pdf", metadata["file_name"])
	assert.Equal(t, "doc_01", metadata["document_id"])
	assert.NotEmpty(t, metadata["stored_at"])
}

func TestLocalStoreUpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertMetadata(ctx, "doc_01", models.DocumentMetadata{"file_name": "v1.pdf"}))
	require.NoError(t, store.UpsertMetadata(ctx, "doc_01", models.DocumentMetadata{"file_name": "v2.pdf"}))

	metadata, found, err := store.GetMetadata(ctx, "doc_01")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2.pdf", metadata["file_name"], "second upsert must fully replace the first")

	ids, err := store.ListDocumentIDs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_01"}, ids, "re-upsert must not duplicate the document")
}

func TestLocalStoreAbsentDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	metadata, found, err := store.GetMetadata(ctx, "doc_missing")
	require.NoError(t, err, "absence is not an error")
	assert.False(t, found)
	assert.Nil(t, metadata)

	report, found, err := store.GetResults(ctx, "doc_missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, report)
}

func TestLocalStoreResultsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &models.ComplianceReport{
		VerificationResults: []models.VerificationVerdict{
			{ClauseID: "c1", IsCompliant: true, Status: models.StatusCompliant, FinalReason: "matches disclosure rule"},
			{ClauseID: "c2", IsCompliant: false, Status: models.StatusNonCompliant, FinalReason: "lock-in too long"},
		},
		RiskExplanations: []*models.RiskExplanation{
			nil,
			{ClauseID: "c2", Severity: models.SeverityHigh, RiskScore: 0.9},
		},
		Stats: models.ComplianceStats{Total: 2, Compliant: 1, NonCompliant: 1, HighRisk: 1, ComplianceRate: 50},
	}
	require.NoError(t, store.UpsertResults(ctx, "doc_01", report))

	got, found, err := store.GetResults(ctx, "doc_01")
	require.NoError(t, err)
	require.True(t, found)

	require.Len(t, got.VerificationResults, 2)
	assert.Equal(t, "c1", got.VerificationResults[0].ClauseID)
	require.Len(t, got.RiskExplanations, 2)
	assert.Nil(t, got.RiskExplanations[0], "positional alignment must survive persistence")
	require.NotNil(t, got.RiskExplanations[1])
	assert.Equal(t, models.SeverityHigh, got.RiskExplanations[1].Severity)
	assert.Equal(t, 50.0, got.Stats.ComplianceRate)
}

func TestLocalStoreListLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"doc_c", "doc_a", "doc_b"} {
		require.NoError(t, store.UpsertMetadata(ctx, id, models.DocumentMetadata{}))
	}

	ids, err := store.ListDocumentIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_a", "doc_b"}, ids)
}

func TestLocalStoreDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertMetadata(ctx, "doc_01", models.DocumentMetadata{}))
	require.NoError(t, store.UploadOriginal(ctx, "doc_01", "agreement.pdf", strings.NewReader("%PDF-1.4")))

	require.NoError(t, store.DeleteDocument(ctx, "doc_01"))

	_, found, err := store.GetMetadata(ctx, "doc_01")
	require.NoError(t, err)
	assert.False(t, found)

	ids, err := store.ListDocumentIDs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
