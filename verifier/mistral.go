package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultMistralAPI   = "https://api.mistral.ai/v1/chat/completions"
	defaultMistralModel = "mistral-large-latest"
)

// MistralVerifier verifies clauses with the Mistral chat-completions API.
type MistralVerifier struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// NewMistralVerifier creates a verifier for the Mistral API. An empty
// model name selects the default.
func NewMistralVerifier(apiKey, model string) *MistralVerifier {
	if model == "" {
		model = defaultMistralModel
	}
	return &MistralVerifier{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: defaultMistralAPI,
		Timeout:  60 * time.Second,
	}
}

// Name identifies the provider in verdicts.
func (v *MistralVerifier) Name() string {
	return "mistral"
}

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralRequest struct {
	Model    string           `json:"model"`
	Messages []mistralMessage `json:"messages"`
}

type mistralResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Verify sends a system+user chat exchange and decodes the reply.
func (v *MistralVerifier) Verify(ctx context.Context, systemPrompt, userPrompt string) (*Result, error) {
	if v.APIKey == "" {
		return nil, errors.New("mistral API key not set")
	}

	reqBody := mistralRequest{
		Model: v.Model,
		Messages: []mistralMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt + "\nReturn ONLY valid JSON."},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, "POST", v.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mistral request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mistral API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp mistralResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode mistral response envelope: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, errors.New("mistral returned no choices")
	}

	raw := apiResp.Choices[0].Message.Content
	if raw == "" {
		return nil, errors.New("mistral returned empty content")
	}

	return Decode(raw)
}
