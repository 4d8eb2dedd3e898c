package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adi0900/RegLex-AI/models"
	"github.com/adi0900/RegLex-AI/verifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRetriever returns one fabricated regulation match per clause.
type stubRetriever struct {
	mu      sync.Mutex
	clauses []models.Clause
}

func (r *stubRetriever) Retrieve(ctx context.Context, clauses []models.Clause, topK int) []models.ClauseMatches {
	r.mu.Lock()
	r.clauses = append(r.clauses, clauses...)
	r.mu.Unlock()

	results := make([]models.ClauseMatches, len(clauses))
	for i, clause := range clauses {
		results[i] = models.ClauseMatches{
			Clause: clause,
			Matches: []models.RetrievalMatch{{
				ClauseID: clause.ClauseID,
				Passage: models.RegulationPassage{
					DocID:   "sebi-lodr",
					ChunkID: "chunk-" + clause.ClauseID,
					Text:    "listed entities shall disclose material events within 24 hours",
				},
				Rank: 0,
			}},
		}
	}
	return results
}

// stubVerifier answers from a canned function and counts invocations.
type stubVerifier struct {
	name   string
	calls  atomic.Int64
	verify func(userPrompt string) (*verifier.Result, error)
}

func (v *stubVerifier) Name() string { return v.name }

func (v *stubVerifier) Verify(ctx context.Context, systemPrompt, userPrompt string) (*verifier.Result, error) {
	v.calls.Add(1)
	return v.verify(userPrompt)
}

func compliantResult(confidence float64) *verifier.Result {
	return &verifier.Result{IsCompliant: true, Confidence: &confidence, Reason: "clause satisfies the disclosure rule"}
}

func newService(t *testing.T, verifiers ...verifier.Verifier) (*ComplianceService, *stubRetriever) {
	t.Helper()
	retriever := &stubRetriever{}
	svc := NewComplianceService(
		WithRetriever(retriever),
		WithVerifiers(verifiers...),
		WithMaxRetries(1),
	)
	return svc, retriever
}

func TestEnsureComplianceOrderPreserved(t *testing.T) {
	// Completion order is scrambled with per-clause delays; verdict order
	// must still match input order.
	v := &stubVerifier{name: "gemini", verify: func(userPrompt string) (*verifier.Result, error) {
		if strings.Contains(userPrompt, "clause-03") {
			time.Sleep(50 * time.Millisecond)
		}
		return compliantResult(0.9), nil
	}}
	svc, _ := newService(t, v)

	clauses := make([]models.Clause, 20)
	for i := range clauses {
		clauses[i] = models.Clause{
			ClauseID: fmt.Sprintf("clause-%02d", i),
			Text:     fmt.Sprintf("obligation %d", i),
		}
	}

	report, err := svc.EnsureCompliance(context.Background(), clauses)
	require.NoError(t, err)
	require.Len(t, report.VerificationResults, len(clauses))
	require.Len(t, report.RiskExplanations, len(clauses))

	for i, verdict := range report.VerificationResults {
		assert.Equal(t, clauses[i].ClauseID, verdict.ClauseID)
	}
}

func TestEnsureComplianceFallbackProvider(t *testing.T) {
	primary := &stubVerifier{name: "gemini", verify: func(string) (*verifier.Result, error) {
		return nil, errors.New("rate limited")
	}}
	secondary := &stubVerifier{name: "mistral", verify: func(string) (*verifier.Result, error) {
		return compliantResult(0.8), nil
	}}
	svc, _ := newService(t, primary, secondary)

	report, err := svc.EnsureCompliance(context.Background(), []models.Clause{
		{ClauseID: "c1", Text: "the issuer shall publish quarterly results"},
	})
	require.NoError(t, err)

	verdict := report.VerificationResults[0]
	assert.Equal(t, models.StatusCompliant, verdict.Status)
	assert.Equal(t, "mistral", verdict.Provider)
	assert.EqualValues(t, 1, primary.calls.Load())
	assert.EqualValues(t, 1, secondary.calls.Load())
}

func TestEnsureComplianceEmptyClause(t *testing.T) {
	v := &stubVerifier{name: "gemini", verify: func(string) (*verifier.Result, error) {
		return compliantResult(0.9), nil
	}}
	svc, retriever := newService(t, v)

	clauses := []models.Clause{
		{ClauseID: "c1", Text: "the issuer shall publish quarterly results"},
		{ClauseID: "c2", Text: "   \n\t  "},
		{ClauseID: "c3", Text: "board approval is required for related party transactions"},
	}

	report, err := svc.EnsureCompliance(context.Background(), clauses)
	require.NoError(t, err)
	require.Len(t, report.VerificationResults, 3)

	empty := report.VerificationResults[1]
	assert.Equal(t, "c2", empty.ClauseID)
	assert.Equal(t, models.StatusUnanalyzable, empty.Status)
	assert.False(t, empty.IsCompliant)
	assert.Nil(t, report.RiskExplanations[1], "empty clause carries no risk")

	// The empty clause must never reach retrieval or a verifier.
	assert.EqualValues(t, 2, v.calls.Load())
	for _, clause := range retriever.clauses {
		assert.NotEqual(t, "c2", clause.ClauseID)
	}
}

func TestEnsureComplianceAllVerifiersFail(t *testing.T) {
	primary := &stubVerifier{name: "gemini", verify: func(string) (*verifier.Result, error) {
		return nil, errors.New("timeout")
	}}
	secondary := &stubVerifier{name: "mistral", verify: func(string) (*verifier.Result, error) {
		return nil, &verifier.DecodeError{Raw: "not json", Err: errors.New("no JSON object found in response")}
	}}
	svc, _ := newService(t, primary, secondary)

	report, err := svc.EnsureCompliance(context.Background(), []models.Clause{
		{ClauseID: "c1", Text: "the issuer may suspend disclosures indefinitely"},
	})
	require.NoError(t, err)

	verdict := report.VerificationResults[0]
	assert.Equal(t, models.StatusInconclusive, verdict.Status)
	assert.False(t, verdict.IsCompliant)
	assert.Contains(t, verdict.FinalReason, "gemini")
	assert.Contains(t, verdict.FinalReason, "mistral")
	assert.Equal(t, 0, report.Stats.Compliant)
	assert.Equal(t, 0, report.Stats.NonCompliant)
}

func TestEnsureComplianceRiskAlignment(t *testing.T) {
	riskScore := 0.85
	v := &stubVerifier{name: "gemini", verify: func(userPrompt string) (*verifier.Result, error) {
		if strings.Contains(userPrompt, "indefinite lock-in") {
			return &verifier.Result{
				IsCompliant: false,
				Reason:      "lock-in period exceeds the permitted maximum",
				Severity:    "high",
				Category:    "Investor Protection",
				RiskScore:   &riskScore,
				Impact:      "investors cannot exit the position",
				Mitigation:  "cap the lock-in at the regulatory maximum",
			}, nil
		}
		return compliantResult(0.95), nil
	}}
	svc, _ := newService(t, v)

	clauses := []models.Clause{
		{ClauseID: "c1", Text: "quarterly results shall be published"},
		{ClauseID: "c2", Text: "shares are subject to an indefinite lock-in"},
		{ClauseID: "c3", Text: "the registrar shall maintain the share ledger"},
	}

	report, err := svc.EnsureCompliance(context.Background(), clauses)
	require.NoError(t, err)

	assert.Nil(t, report.RiskExplanations[0])
	assert.Nil(t, report.RiskExplanations[2])

	explanation := report.RiskExplanations[1]
	require.NotNil(t, explanation)
	assert.Equal(t, "c2", explanation.ClauseID)
	assert.Equal(t, models.SeverityHigh, explanation.Severity)
	assert.Equal(t, 0.85, explanation.RiskScore)
	assert.Equal(t, "Investor Protection", explanation.Category)

	assert.Equal(t, 1, report.Stats.HighRisk)
	assert.Equal(t, 1, report.Stats.NonCompliant)
	assert.Equal(t, 2, report.Stats.Compliant)
}

func TestEnsureComplianceDerivedRiskScore(t *testing.T) {
	confidence := 0.8
	v := &stubVerifier{name: "gemini", verify: func(string) (*verifier.Result, error) {
		return &verifier.Result{
			IsCompliant: false,
			Confidence:  &confidence,
			Severity:    "medium",
			Reason:      "partial disclosure only",
		}, nil
	}}
	svc, _ := newService(t, v)

	report, err := svc.EnsureCompliance(context.Background(), []models.Clause{
		{ClauseID: "c1", Text: "partial disclosures are permitted"},
	})
	require.NoError(t, err)

	explanation := report.RiskExplanations[0]
	require.NotNil(t, explanation)
	assert.Equal(t, 0.2, explanation.RiskScore)
}

func TestEnsureComplianceNoVerifiers(t *testing.T) {
	svc := NewComplianceService(WithRetriever(&stubRetriever{}))

	_, err := svc.EnsureCompliance(context.Background(), []models.Clause{{ClauseID: "c1", Text: "x"}})
	assert.ErrorIs(t, err, ErrNoVerifiers)
}

func TestEnsureComplianceNoRetriever(t *testing.T) {
	svc := NewComplianceService(WithVerifiers(&stubVerifier{name: "gemini", verify: func(string) (*verifier.Result, error) {
		return compliantResult(0.9), nil
	}}))

	_, err := svc.EnsureCompliance(context.Background(), []models.Clause{{ClauseID: "c1", Text: "x"}})
	assert.ErrorIs(t, err, ErrNoRetriever)
}

// failingStore rejects every write.
type failingStore struct{}

func (f *failingStore) UpsertMetadata(ctx context.Context, id string, m models.DocumentMetadata) error {
	return errors.New("bucket unavailable")
}
func (f *failingStore) UpsertResults(ctx context.Context, id string, r *models.ComplianceReport) error {
	return errors.New("bucket unavailable")
}
func (f *failingStore) GetMetadata(ctx context.Context, id string) (models.DocumentMetadata, bool, error) {
	return nil, false, nil
}
func (f *failingStore) GetResults(ctx context.Context, id string) (*models.ComplianceReport, bool, error) {
	return nil, false, nil
}
func (f *failingStore) ListDocumentIDs(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}
func (f *failingStore) UploadOriginal(ctx context.Context, id, filename string, data io.Reader) error {
	return errors.New("bucket unavailable")
}
func (f *failingStore) DeleteDocument(ctx context.Context, id string) error {
	return nil
}

func TestProcessDocumentStorageFailure(t *testing.T) {
	v := &stubVerifier{name: "gemini", verify: func(string) (*verifier.Result, error) {
		return compliantResult(0.9), nil
	}}
	retriever := &stubRetriever{}
	svc := NewComplianceService(
		WithRetriever(retriever),
		WithVerifiers(v),
		WithDocumentStore(&failingStore{}),
		WithMaxRetries(1),
	)

	report, err := svc.ProcessDocument(context.Background(), "doc_test", []models.Clause{
		{ClauseID: "c1", Text: "the issuer shall publish quarterly results"},
	}, models.DocumentMetadata{"file_name": "agreement.pdf"})

	require.ErrorIs(t, err, ErrStorageFailed)
	require.NotNil(t, report, "report must survive a persistence failure")
	assert.Equal(t, 1, report.Stats.Compliant)
}
