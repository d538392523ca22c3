package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"
)

const (
	embeddingAPI   = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent"
	maxRetries     = 3
	initialBackoff = time.Second
)

// ErrEmbeddingFailed is returned when the embedding API keeps failing after
// retries
var ErrEmbeddingFailed = errors.New("failed to generate embedding")

// Embedder encodes scenario text into a fixed-dimension dense vector
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float64, error)
}

// EmbeddingRequest represents an embedding API request
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse represents an embedding API response
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// GeminiEmbedder encodes text via the Gemini embedContent API. The model
// produces Matryoshka-style embeddings, so truncating to the configured
// dimensionality is valid; vectors are L2-normalized after truncation.
type GeminiEmbedder struct {
	modelID string
	dim     int
	client  *http.Client
}

// NewGeminiEmbedder creates an embedder for the given model id and target
// dimensionality
func NewGeminiEmbedder(modelID string, dim int) *GeminiEmbedder {
	return &GeminiEmbedder{
		modelID: modelID,
		dim:     dim,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Encode embeds text into a dim-length unit vector, retrying transient API
// failures with exponential backoff. 400 and 401 responses are not retried.
func (e *GeminiEmbedder) Encode(ctx context.Context, text string) ([]float64, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := EmbeddingRequest{
		Model: "models/" + e.modelID,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: e.dim,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf(embeddingAPI, e.modelID)

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			return e.finalize(apiResp.Embedding.Values), nil
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

// finalize truncates the raw embedding to the target dimensionality and
// L2-normalizes it
func (e *GeminiEmbedder) finalize(embedding []float64) []float64 {
	if e.dim > 0 && e.dim < len(embedding) {
		embedding = embedding[:e.dim]
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}

	return embedding
}
