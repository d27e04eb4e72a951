package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quizbank/qbank-backend/internal/config"
)

// ErrUploadsDisabled is returned when a question carries an inline image but
// no image host is configured.
var ErrUploadsDisabled = errors.New("image uploads are not configured")

// ImageUploader pushes a raw image reference (data URI or remote URL) to the
// external image host and returns the hosted URL.
type ImageUploader interface {
	Upload(ctx context.Context, image string) (string, error)
}

// ImageHostClient talks to the external image host over HTTP. The host is an
// opaque collaborator: one POST, one URL back, no retries.
type ImageHostClient struct {
	uploadURL string
	apiKey    string
	client    *http.Client
}

// NewImageHostClient creates an ImageHostClient from configuration.
func NewImageHostClient(cfg *config.Config) *ImageHostClient {
	return &ImageHostClient{
		uploadURL: cfg.ImageHostUploadURL,
		apiKey:    cfg.ImageHostAPIKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload sends the image payload and returns the hosted URL.
func (c *ImageHostClient) Upload(ctx context.Context, image string) (string, error) {
	if c.uploadURL == "" {
		return "", ErrUploadsDisabled
	}

	form := url.Values{}
	form.Set("file", image)
	if c.apiKey != "" {
		form.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image host returned status %d", resp.StatusCode)
	}

	var body uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if body.URL == "" {
		return "", errors.New("image host returned no URL")
	}
	return body.URL, nil
}
