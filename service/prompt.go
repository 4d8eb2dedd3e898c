package service

import (
	"fmt"
	"strings"

	"github.com/adi0900/RegLex-AI/models"
)

const verifierSystemPrompt = `You are a securities-market compliance verifier. You are given one contractual clause and the regulatory passages retrieved as relevant to it. Judge whether the clause complies with the retrieved regulations. Ground your judgment strictly in the passages provided; do not invent regulatory requirements.

Respond with ONLY a JSON object in this exact shape:
{
  "is_compliant": true or false,
  "confidence": number between 0 and 1,
  "reason": "one-paragraph justification citing the passages",
  "severity": "low" | "medium" | "high" (only when non-compliant),
  "category": "short risk category (e.g. Financial Terms, Disclosure)",
  "impact": "consequence if the clause stands as written",
  "mitigation": "how the clause could be amended",
  "matched_rules": ["chunk ids of the passages your judgment relies on"]
}
Omit severity, category, impact and mitigation for compliant clauses. No markdown, no prose outside the JSON object.`

// buildPrompts assembles the verification exchange for one clause: the
// clause text plus each retrieved passage with its identifying metadata,
// so the verdict is grounded in retrieved rules rather than open-ended
// judgment.
func buildPrompts(cm models.ClauseMatches) (systemPrompt, userPrompt string) {
	var builder strings.Builder

	builder.WriteString("CLAUSE UNDER REVIEW:\n")
	builder.WriteString(fmt.Sprintf("[%s] %s\n\n", cm.Clause.ClauseID, cm.Clause.Text))

	builder.WriteString("RETRIEVED REGULATORY PASSAGES:\n")
	if len(cm.Matches) == 0 {
		builder.WriteString("(none retrieved)\n")
	}
	for _, match := range cm.Matches {
		builder.WriteString(fmt.Sprintf("Passage %d (doc: %s, chunk: %s, distance: %.4f):\n%s\n\n",
			match.Rank+1, match.Passage.DocID, match.Passage.ChunkID, match.Distance, match.Passage.Text))
	}

	builder.WriteString("Judge the clause against these passages and respond with the JSON object.")

	return verifierSystemPrompt, builder.String()
}
