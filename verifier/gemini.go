package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiVerifier verifies clauses with the Gemini API. The client's
// lifecycle is owned by the caller.
type GeminiVerifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiVerifier wraps an existing Gemini client. An empty model name
// selects the default.
func NewGeminiVerifier(client *genai.Client, model string) *GeminiVerifier {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiVerifier{
		client:  client,
		model:   model,
		timeout: 60 * time.Second,
	}
}

// Name identifies the provider in verdicts.
func (v *GeminiVerifier) Name() string {
	return "gemini"
}

// Verify sends the prompts as a single user turn and decodes the reply.
func (v *GeminiVerifier) Verify(ctx context.Context, systemPrompt, userPrompt string) (*Result, error) {
	if v.client == nil {
		return nil, errors.New("gemini client not set")
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	model := v.client.GenerativeModel(v.model)
	resp, err := model.GenerateContent(callCtx, genai.Text(systemPrompt+"\n"+userPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	raw := builder.String()
	if raw == "" {
		return nil, errors.New("gemini returned empty content")
	}

	return Decode(raw)
}
