package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"peoplescourt-backend/models"
)

// Jury produces a pre-deliberation probability distribution over the four
// verdict categories. The model itself (a fine-tuned sequence classifier)
// runs in a separate inference service; this client only speaks its HTTP
// contract. Normalizing the distribution is the classifier's job, not ours.
type Jury interface {
	Predict(ctx context.Context, text string) (models.ConsensusDistribution, error)
}

// HTTPJury calls a classifier sidecar over HTTP
type HTTPJury struct {
	baseURL string
	client  *http.Client
}

// NewHTTPJury creates a jury client for the given base URL, for example
// http://localhost:8500
func NewHTTPJury(baseURL string) *HTTPJury {
	return &HTTPJury{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Predict sends the scenario to POST {base}/predict and returns the verdict
// probability distribution
func (j *HTTPJury) Predict(ctx context.Context, text string) (models.ConsensusDistribution, error) {
	reqBody, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", j.baseURL+"/predict", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jury request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jury API error: %d - %s", resp.StatusCode, string(body))
	}

	var consensus models.ConsensusDistribution
	if err := json.NewDecoder(resp.Body).Decode(&consensus); err != nil {
		return nil, fmt.Errorf("failed to decode jury response: %w", err)
	}

	return consensus, nil
}
