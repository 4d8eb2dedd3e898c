package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/adi0900/RegLex-AI/models"
	"github.com/adi0900/RegLex-AI/retrieval"
	"github.com/adi0900/RegLex-AI/storage"
	"github.com/adi0900/RegLex-AI/verifier"
)

var (
	ErrNoRetriever   = errors.New("retriever not set")
	ErrNoVerifiers   = errors.New("no verifiers configured")
	ErrStorageFailed = errors.New("failed to persist compliance results")
)

const (
	defaultMaxConcurrent = 4
	defaultMaxRetries    = 2
	initialBackoff       = time.Second
)

// ClauseRetriever is the retrieval stage consumed by the orchestrator.
type ClauseRetriever interface {
	Retrieve(ctx context.Context, clauses []models.Clause, topK int) []models.ClauseMatches
}

// ComplianceService drives retrieval and verification per clause and
// aggregates the verdicts into a document-level report.
type ComplianceService struct {
	retriever     ClauseRetriever
	verifiers     []verifier.Verifier
	store         storage.DocumentStore
	topK          int
	maxConcurrent int
	maxRetries    int
}

// ComplianceServiceOption is a functional option for ComplianceService.
type ComplianceServiceOption func(*ComplianceService)

// WithRetriever sets the retrieval stage.
func WithRetriever(r ClauseRetriever) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.retriever = r
	}
}

// WithVerifiers sets the verifier chain. The first verifier is primary;
// the rest are fallbacks, tried in order.
func WithVerifiers(verifiers ...verifier.Verifier) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.verifiers = verifiers
	}
}

// WithDocumentStore sets the optional document store used by ProcessDocument.
func WithDocumentStore(store storage.DocumentStore) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.store = store
	}
}

// WithTopK sets how many regulation passages are retrieved per clause.
func WithTopK(topK int) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.topK = topK
	}
}

// WithMaxConcurrent bounds the clause verification fan-out. External LLM
// providers rate-limit aggressively; unbounded concurrency turns throttling
// into misleading batch failures.
func WithMaxConcurrent(n int) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.maxConcurrent = n
	}
}

// WithMaxRetries sets the attempt count per verifier per clause.
func WithMaxRetries(n int) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.maxRetries = n
	}
}

// NewComplianceService creates a new compliance service.
func NewComplianceService(opts ...ComplianceServiceOption) *ComplianceService {
	s := &ComplianceService{
		topK:          retrieval.DefaultTopK,
		maxConcurrent: defaultMaxConcurrent,
		maxRetries:    defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCompliance verifies every clause and returns a report whose
// verdict and risk-explanation lists preserve the input clause order.
// Exactly one verdict is emitted per input clause: empty-text clauses get
// an unanalyzable placeholder, clauses for which every verifier failed get
// an inconclusive verdict. No clause is ever dropped.
func (s *ComplianceService) EnsureCompliance(ctx context.Context, clauses []models.Clause) (*models.ComplianceReport, error) {
	if s.retriever == nil {
		return nil, ErrNoRetriever
	}
	if len(s.verifiers) == 0 {
		return nil, ErrNoVerifiers
	}

	verdicts := make([]models.VerificationVerdict, len(clauses))
	explanations := make([]*models.RiskExplanation, len(clauses))

	// Empty clauses are terminal: mark them up front, never call a verifier.
	analyzable := make([]models.Clause, 0, len(clauses))
	positions := make([]int, 0, len(clauses))
	for i, clause := range clauses {
		if clause.IsEmpty() {
			verdicts[i] = models.VerificationVerdict{
				ClauseID:    clause.ClauseID,
				IsCompliant: false,
				Status:      models.StatusUnanalyzable,
				FinalReason: "clause text is empty or whitespace-only; verification skipped",
			}
			continue
		}
		analyzable = append(analyzable, clause)
		positions = append(positions, i)
	}

	retrieved := s.retriever.Retrieve(ctx, analyzable, s.topK)

	// Bounded fan-out. Each goroutine writes only its own result slot, so
	// input order survives regardless of completion order.
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.maxConcurrent)

	for j := range retrieved {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(j int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			pos := positions[j]
			verdict, explanation := s.verifyClause(ctx, retrieved[j])
			verdicts[pos] = verdict
			explanations[pos] = explanation
		}(j)
	}

	wg.Wait()

	return &models.ComplianceReport{
		VerificationResults: verdicts,
		RiskExplanations:    explanations,
		Stats:               Aggregate(verdicts, explanations),
	}, nil
}

// ProcessDocument runs EnsureCompliance and persists metadata and results
// when a store is configured. A storage failure is returned alongside the
// in-memory report so the caller can still serve it while reporting the
// persistence problem.
func (s *ComplianceService) ProcessDocument(
	ctx context.Context,
	documentID string,
	clauses []models.Clause,
	metadata models.DocumentMetadata,
) (*models.ComplianceReport, error) {
	report, err := s.EnsureCompliance(ctx, clauses)
	if err != nil {
		return nil, err
	}

	if s.store == nil {
		return report, nil
	}

	if metadata == nil {
		metadata = models.DocumentMetadata{}
	}
	metadata["total_clauses"] = report.Stats.Total
	metadata["compliance_rate"] = report.Stats.ComplianceRate

	if err := s.store.UpsertMetadata(ctx, documentID, metadata); err != nil {
		return report, fmt.Errorf("%w: metadata for %s: %v", ErrStorageFailed, documentID, err)
	}
	if err := s.store.UpsertResults(ctx, documentID, report); err != nil {
		return report, fmt.Errorf("%w: results for %s: %v", ErrStorageFailed, documentID, err)
	}
	return report, nil
}

// verifyClause walks the verifier chain for one clause: each verifier is
// attempted with retry, and the first decodable verdict wins.
func (s *ComplianceService) verifyClause(ctx context.Context, cm models.ClauseMatches) (models.VerificationVerdict, *models.RiskExplanation) {
	systemPrompt, userPrompt := buildPrompts(cm)

	var failures []string
	for _, v := range s.verifiers {
		backoff := initialBackoff
		for attempt := 0; attempt < s.maxRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(backoff)
				backoff *= 2
			}

			result, err := v.Verify(ctx, systemPrompt, userPrompt)
			if err != nil {
				var decodeErr *verifier.DecodeError
				if errors.As(err, &decodeErr) {
					log.Printf("Warning: %s returned undecodable output for clause %s: %v. Raw: %s",
						v.Name(), cm.Clause.ClauseID, err, truncate(decodeErr.Raw, 500))
				}
				failures = append(failures, fmt.Sprintf("%s: %v", v.Name(), err))
				continue
			}

			return s.buildVerdict(cm, result, v.Name())
		}
	}

	// Every configured verifier failed; the clause still gets a verdict.
	return models.VerificationVerdict{
		ClauseID:    cm.Clause.ClauseID,
		IsCompliant: false,
		Status:      models.StatusInconclusive,
		FinalReason: "all verifiers failed: " + strings.Join(failures, "; "),
	}, nil
}

// buildVerdict normalizes a decoded verifier result into a verdict and,
// when the clause is risk-bearing, a positionally aligned explanation.
func (s *ComplianceService) buildVerdict(cm models.ClauseMatches, result *verifier.Result, provider string) (models.VerificationVerdict, *models.RiskExplanation) {
	status := models.StatusCompliant
	if !result.IsCompliant {
		status = models.StatusNonCompliant
	}

	verdict := models.VerificationVerdict{
		ClauseID:     cm.Clause.ClauseID,
		IsCompliant:  result.IsCompliant,
		Status:       status,
		Confidence:   result.Confidence,
		FinalReason:  result.Reason,
		MatchedRules: matchedRules(cm, result.MatchedRules),
		Provider:     provider,
	}

	if result.IsCompliant && result.Severity == "" && result.Category == "" {
		return verdict, nil
	}

	explanation := &models.RiskExplanation{
		ClauseID:   cm.Clause.ClauseID,
		Severity:   severityFor(result),
		RiskScore:  riskScoreFor(result),
		Category:   result.Category,
		Impact:     result.Impact,
		Mitigation: result.Mitigation,
	}
	return verdict, explanation
}

// matchedRules resolves the verifier's cited rule identifiers against the
// retrieved evidence. When the verifier cites nothing, all retrieved
// passages count as the grounding set. Placeholder matches are never cited.
func matchedRules(cm models.ClauseMatches, cited []string) []models.RuleReference {
	var refs []models.RuleReference
	for _, match := range cm.Matches {
		if retrieval.IsPlaceholder(match) {
			continue
		}
		if len(cited) > 0 && !containsRule(cited, match.Passage) {
			continue
		}
		refs = append(refs, models.RuleReference{
			DocID:    match.Passage.DocID,
			ClauseID: match.Passage.ClauseID,
			ChunkID:  match.Passage.ChunkID,
		})
	}
	return refs
}

func containsRule(cited []string, passage models.RegulationPassage) bool {
	for _, id := range cited {
		if id == passage.ChunkID || id == passage.DocID {
			return true
		}
	}
	return false
}

func severityFor(result *verifier.Result) models.Severity {
	switch result.Severity {
	case "low":
		return models.SeverityLow
	case "medium":
		return models.SeverityMedium
	case "high":
		return models.SeverityHigh
	}
	// The verifier flagged non-compliance without grading it.
	return models.SeverityMedium
}

func riskScoreFor(result *verifier.Result) float64 {
	if result.RiskScore != nil {
		return *result.RiskScore
	}
	if result.Confidence != nil {
		return round2(1 - *result.Confidence)
	}
	return 0.5
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
