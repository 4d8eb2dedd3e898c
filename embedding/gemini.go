package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

const (
	defaultEmbeddingAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:batchEmbedContents"
	defaultModel        = "models/gemini-embedding-001"
	defaultDimensions   = 768

	maxRetries     = 3
	initialBackoff = time.Second
)

var ErrEmbeddingFailed = errors.New("failed to generate embeddings")

// GeminiEmbedder generates embeddings via the Gemini embedding API.
type GeminiEmbedder struct {
	APIKey     string
	Model      string
	Endpoint   string
	Dimensions int
	TaskType   string
	Timeout    time.Duration
}

// NewGeminiEmbedder creates an embedder with the default model and
// dimensionality, tuned for query-side encoding. Corpus builds should set
// TaskType to "RETRIEVAL_DOCUMENT".
func NewGeminiEmbedder(apiKey string) *GeminiEmbedder {
	return &GeminiEmbedder{
		APIKey:     apiKey,
		Model:      defaultModel,
		Endpoint:   defaultEmbeddingAPI,
		Dimensions: defaultDimensions,
		TaskType:   "RETRIEVAL_QUERY",
		Timeout:    30 * time.Second,
	}
}

type partInput struct {
	Text string `json:"text"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type embedRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type embeddingData struct {
	Values []float64 `json:"values"`
}

type batchEmbedResponse struct {
	Embeddings []embeddingData `json:"embeddings"`
}

// Encode embeds all texts in a single batched API call. Results come back
// in request order. Vectors are L2-normalized.
func (e *GeminiEmbedder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.APIKey == "" {
		return nil, errors.New("gemini API key not set")
	}

	reqBody := batchEmbedRequest{Requests: make([]embedRequest, 0, len(texts))}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, embedRequest{
			Model:                e.Model,
			Content:              contentInput{Parts: []partInput{{Text: text}}},
			TaskType:             e.TaskType,
			OutputDimensionality: e.Dimensions,
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.Endpoint, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.APIKey)

		client := &http.Client{Timeout: e.Timeout}
		resp, err := client.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp batchEmbedResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			if len(apiResp.Embeddings) != len(texts) {
				return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Embeddings))
			}

			vectors := make([][]float64, len(apiResp.Embeddings))
			for i, emb := range apiResp.Embeddings {
				vectors[i] = normalize(emb.Values)
			}
			return vectors, nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}

		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

func normalize(vector []float64) []float64 {
	norm := 0.0
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector
}
