package models

// VerdictStatus is the normalized outcome of verifying one clause.
type VerdictStatus string

const (
	// StatusCompliant means a verifier judged the clause compliant.
	StatusCompliant VerdictStatus = "compliant"
	// StatusNonCompliant means a verifier judged the clause non-compliant.
	StatusNonCompliant VerdictStatus = "non_compliant"
	// StatusInconclusive means every configured verifier failed for the
	// clause; the verdict carries the failure reason instead of a judgment.
	StatusInconclusive VerdictStatus = "inconclusive"
	// StatusUnanalyzable means the clause had no text to verify.
	StatusUnanalyzable VerdictStatus = "unanalyzable"
)

// RuleReference identifies a regulation passage cited by a verdict.
type RuleReference struct {
	DocID    string `json:"doc_id"`
	ClauseID string `json:"clause_id"`
	ChunkID  string `json:"chunk_id"`
}

// VerificationVerdict is one verifier determination for one clause.
type VerificationVerdict struct {
	ClauseID     string          `json:"clause_id"`
	IsCompliant  bool            `json:"is_compliant"`
	Status       VerdictStatus   `json:"status"`
	Confidence   *float64        `json:"confidence,omitempty"`
	FinalReason  string          `json:"final_reason"`
	MatchedRules []RuleReference `json:"matched_rules,omitempty"`
	Provider     string          `json:"provider,omitempty"`
}

// Severity grades the risk attached to a non-compliant clause.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskExplanation is the severity-graded elaboration for a risk-bearing
// clause. Absence of an explanation means no elevated risk was identified.
type RiskExplanation struct {
	ClauseID   string   `json:"clause_id"`
	Severity   Severity `json:"severity"`
	RiskScore  float64  `json:"risk_score"`
	Category   string   `json:"category,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Mitigation string   `json:"mitigation,omitempty"`
}
