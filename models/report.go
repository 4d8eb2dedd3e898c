package models

// ComplianceStats holds document-level counts derived from the final
// verdict list.
type ComplianceStats struct {
	Total          int     `json:"total"`
	Compliant      int     `json:"compliant"`
	NonCompliant   int     `json:"non_compliant"`
	HighRisk       int     `json:"high_risk"`
	MediumRisk     int     `json:"medium_risk"`
	LowRisk        int     `json:"low_risk"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// ComplianceReport aggregates the verification of one document.
//
// VerificationResults and RiskExplanations are positionally aligned:
// RiskExplanations[i], when non-nil, refers to the same clause as
// VerificationResults[i]. Both preserve the input clause order.
type ComplianceReport struct {
	VerificationResults []VerificationVerdict `json:"verification_results"`
	RiskExplanations    []*RiskExplanation    `json:"risk_explanations"`
	Stats               ComplianceStats       `json:"stats"`
}
