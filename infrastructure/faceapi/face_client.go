package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/logger"
)

// ErrEmbeddingServiceUnavailable wraps transport-level failures, including a
// 5xx answer and a 200 whose body cannot be decoded.
var ErrEmbeddingServiceUnavailable = errors.New("embedding service unavailable")

const defaultTimeout = 30 * time.Second

// FaceClient talks to the face embedding service
type FaceClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// EmbedRequest is the body of POST /embed. Exactly one image field is set.
type EmbedRequest struct {
	ImageURL       string `json:"imageUrl,omitempty"`
	ImageBase64    string `json:"imageBase64,omitempty"`
	DetectionModel string `json:"detectionModel,omitempty"`
	Upsample       int    `json:"upsample,omitempty"`
	NumJitters     int    `json:"numJitters,omitempty"`
}

// EmbedResponse is the body returned by POST /embed
type EmbedResponse struct {
	Embeddings []EmbeddingItem `json:"embeddings"`
	FacesFound int             `json:"facesFound,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// EmbeddingItem accepts both a bare vector and an {embedding, bbox} object
type EmbeddingItem struct {
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox,omitempty"`
}

func (i *EmbeddingItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		i.BBox = nil
		return json.Unmarshal(data, &i.Embedding)
	}

	type item EmbeddingItem
	var decoded item
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*i = EmbeddingItem(decoded)
	return nil
}

// HealthResponse is the response from health check
type HealthResponse struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Version string `json:"version,omitempty"`
}

// NewFaceClient creates a client for the service at baseURL. A zero timeout
// uses 30s per call.
func NewFaceClient(baseURL string, timeout time.Duration) *FaceClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &FaceClient{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// EmbedFromURL asks the service to embed every face of the image at imageURL.
// A failed or empty first attempt is retried once with stricter detection.
// Only a transport failure of the retry is returned as an error.
func (c *FaceClient) EmbedFromURL(ctx context.Context, imageURL string) ([]services.GeneratedEmbedding, error) {
	embeddings, err := c.embed(ctx, EmbedRequest{ImageURL: imageURL})
	if err == nil && len(embeddings) > 0 {
		return embeddings, nil
	}
	if err != nil {
		logger.FaceWarn("embed_url_failed", "Embedding attempt failed, retrying", map[string]interface{}{
			"image_url": imageURL,
			"error":     err.Error(),
		})
	}

	retry := withOptions(EmbedRequest{ImageURL: imageURL}, services.EscalatedDetection)
	embeddings, err = c.embed(ctx, retry)
	if err != nil {
		logger.FaceError("embed_url_retry_failed", "Retry embedding failed", err, map[string]interface{}{
			"image_url": imageURL,
		})
		return nil, err
	}

	return embeddings, nil
}

// EmbedFromImage embeds an inline base64 image in a single call
func (c *FaceClient) EmbedFromImage(ctx context.Context, imageBase64 string, opts services.DetectionOptions) ([]services.GeneratedEmbedding, error) {
	return c.embed(ctx, withOptions(EmbedRequest{ImageBase64: imageBase64}, opts))
}

func withOptions(req EmbedRequest, opts services.DetectionOptions) EmbedRequest {
	req.DetectionModel = opts.DetectionModel
	req.Upsample = opts.Upsample
	req.NumJitters = opts.NumJitters
	return req
}

// embed performs one POST /embed. A 4xx answer is how the service reports
// an image without usable faces, so it yields an empty result.
func (c *FaceClient) embed(ctx context.Context, reqBody EmbedRequest) ([]services.GeneratedEmbedding, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrEmbeddingServiceUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingServiceUnavailable, resp.StatusCode, string(body))
	}

	var result EmbedResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("%w: failed to parse response: %v", ErrEmbeddingServiceUnavailable, err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Face("embed_rejected", "Embedding service found no usable face", map[string]interface{}{
			"status": resp.StatusCode,
			"error":  result.Error,
		})
		return []services.GeneratedEmbedding{}, nil
	}

	embeddings := make([]services.GeneratedEmbedding, 0, len(result.Embeddings))
	for _, item := range result.Embeddings {
		if len(item.Embedding) == 0 {
			continue
		}
		embeddings = append(embeddings, services.GeneratedEmbedding{
			Vector:      item.Embedding,
			BoundingBox: item.BBox,
		})
	}

	logger.Debug(logger.CategoryFace, "embed", "Embedding call completed", map[string]interface{}{
		"faces":    len(embeddings),
		"duration": time.Since(start).String(),
	})

	return embeddings, nil
}

// Health checks if the face API is healthy
func (c *FaceClient) Health(ctx context.Context) (*HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call health API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// IsAvailable checks if the face API is available
func (c *FaceClient) IsAvailable(ctx context.Context) bool {
	health, err := c.Health(ctx)
	if err != nil {
		return false
	}
	return health.Status == "ok" || health.Status == "healthy"
}
