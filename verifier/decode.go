package verifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeError reports that a provider responded but its output could not
// be parsed into a Result. Raw retains the original payload for diagnosis.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode verifier response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode extracts a structured Result from raw verifier output. Models
// routinely wrap JSON in fenced code blocks or surrounding prose, so the
// wrapping is stripped before parsing. On failure the raw text is
// preserved inside the returned *DecodeError; no fields are fabricated.
func Decode(raw string) (*Result, error) {
	cleaned := stripWrapping(raw)
	if cleaned == "" {
		return nil, &DecodeError{Raw: raw, Err: fmt.Errorf("no JSON object found in response")}
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &DecodeError{Raw: raw, Err: err}
	}

	if result.Confidence != nil {
		if c := *result.Confidence; c < 0 || c > 1 {
			return nil, &DecodeError{Raw: raw, Err: fmt.Errorf("confidence %v outside [0,1]", c)}
		}
	}

	// Unknown severities are dropped rather than guessed at.
	switch strings.ToLower(strings.TrimSpace(result.Severity)) {
	case "low":
		result.Severity = "low"
	case "medium", "moderate":
		result.Severity = "medium"
	case "high", "critical":
		result.Severity = "high"
	default:
		result.Severity = ""
	}

	return &result, nil
}

// stripWrapping removes fenced code-block markers and any prose around the
// outermost JSON object.
func stripWrapping(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return cleaned[start : end+1]
}
