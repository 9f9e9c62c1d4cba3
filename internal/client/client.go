// Package client talks to a running leaf-api server.
package client

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Brownie44l1/leaf-api/internal/api"
)

type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout),
	}
}

// Predict uploads the image at path and returns the server's prediction.
func (c *Client) Predict(ctx context.Context, path string) (*api.PredictResponse, error) {
	var result api.PredictResponse
	var apiErr api.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetFile(api.ImageField, path).
		SetResult(&result).
		SetError(&apiErr).
		Post(api.PredictPath)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Message: apiErr.Error}
	}
	return &result, nil
}

// Diseases fetches the advisory table.
func (c *Client) Diseases(ctx context.Context) (api.DiseasesResponse, error) {
	var result api.DiseasesResponse
	var apiErr api.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&apiErr).
		Get(api.DiseasesPath)
	if err != nil {
		return nil, fmt.Errorf("fetch diseases: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Message: apiErr.Error}
	}
	return result, nil
}

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}
