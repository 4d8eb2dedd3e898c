package verifier

import "context"

// Result is the structured verdict decoded from a verifier's response.
// Severity, Category, RiskScore, Impact and Mitigation are optional and
// validated for type and range only; their semantics belong to the model.
type Result struct {
	IsCompliant  bool     `json:"is_compliant"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Reason       string   `json:"reason"`
	Severity     string   `json:"severity,omitempty"`
	Category     string   `json:"category,omitempty"`
	RiskScore    *float64 `json:"risk_score,omitempty"`
	Impact       string   `json:"impact,omitempty"`
	Mitigation   string   `json:"mitigation,omitempty"`
	MatchedRules []string `json:"matched_rules,omitempty"`
}

// Verifier is one interchangeable LLM verification backend. Variants wrap
// distinct external endpoints but all normalize to this contract, and none
// leaks its provider-specific response shape past the decode step.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, systemPrompt, userPrompt string) (*Result, error)
}
