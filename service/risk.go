package service

import (
	"math"

	"github.com/adi0900/RegLex-AI/models"
)

// Aggregate computes document-level statistics from the final verdict
// list. It is a pure function and must only run after all fallbacks are
// resolved; aggregating intermediate state would undercount failures.
func Aggregate(verdicts []models.VerificationVerdict, explanations []*models.RiskExplanation) models.ComplianceStats {
	stats := models.ComplianceStats{Total: len(verdicts)}

	for _, verdict := range verdicts {
		switch verdict.Status {
		case models.StatusCompliant:
			stats.Compliant++
		case models.StatusNonCompliant:
			stats.NonCompliant++
		}
	}

	for _, explanation := range explanations {
		if explanation == nil {
			continue
		}
		switch explanation.Severity {
		case models.SeverityHigh:
			stats.HighRisk++
		case models.SeverityMedium:
			stats.MediumRisk++
		case models.SeverityLow:
			stats.LowRisk++
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Compliant) / float64(stats.Total) * 100
		stats.ComplianceRate = math.Round(rate*100) / 100
	}

	return stats
}
