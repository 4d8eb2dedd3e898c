package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mistralServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Contains(t, req.Messages[1].Content, "Return ONLY valid JSON.")

		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": content}},
				},
			})
		}
	}))
}

func TestMistralVerify(t *testing.T) {
	server := mistralServer(t, http.StatusOK,
		"```json\n{\"is_compliant\": false, \"confidence\": 0.7, \"severity\": \"medium\", \"reason\": \"notice period too short\"}\n```")
	defer server.Close()

	v := NewMistralVerifier("test-key", "")
	v.Endpoint = server.URL

	result, err := v.Verify(context.Background(), "system instructions", "clause and passages")
	require.NoError(t, err)
	assert.False(t, result.IsCompliant)
	assert.Equal(t, "medium", result.Severity)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.7, *result.Confidence)
}

func TestMistralVerifyAPIError(t *testing.T) {
	server := mistralServer(t, http.StatusTooManyRequests, "")
	defer server.Close()

	v := NewMistralVerifier("test-key", "")
	v.Endpoint = server.URL

	_, err := v.Verify(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestMistralVerifyUndecodableBody(t *testing.T) {
	server := mistralServer(t, http.StatusOK, "I am unable to produce JSON for this clause.")
	defer server.Close()

	v := NewMistralVerifier("test-key", "")
	v.Endpoint = server.URL

	_, err := v.Verify(context.Background(), "system", "user")
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Raw, "unable to produce JSON")
}

func TestMistralVerifyMissingKey(t *testing.T) {
	v := NewMistralVerifier("", "")

	_, err := v.Verify(context.Background(), "system", "user")
	assert.Error(t, err)
}
