// Package client is a typed HTTP client for the data catalog API. It keeps
// the bearer token from the last successful register/login and retries on
// 5xx responses and network failures with increasing backoff before giving
// up.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultMaxRetries = 3

// APIError carries the server's error envelope for non-2xx responses.
type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Client talks to a catalog server at baseURL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	retryDelay time.Duration
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: defaultMaxRetries,
		retryDelay: time.Second,
	}
}

// SetToken replaces the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the currently held bearer token.
func (c *Client) Token() string {
	return c.token
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"createdAt"`
	UserID      string   `json:"userId"`
}

type DatasetInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type datasetEnvelope struct {
	Message string  `json:"message"`
	Dataset Dataset `json:"dataset"`
}

type datasetListEnvelope struct {
	Datasets []Dataset `json:"datasets"`
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", creds, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var resp datasetListEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "/datasets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Datasets, nil
}

func (c *Client) CreateDataset(ctx context.Context, input DatasetInput) (*Dataset, error) {
	var resp datasetEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "/datasets", normalizeInput(input), &resp); err != nil {
		return nil, err
	}
	return &resp.Dataset, nil
}

func (c *Client) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	var resp datasetEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "/datasets/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Dataset, nil
}

func (c *Client) UpdateDataset(ctx context.Context, id string, input DatasetInput) (*Dataset, error) {
	var resp datasetEnvelope
	if err := c.doRequest(ctx, http.MethodPut, "/datasets/"+id, normalizeInput(input), &resp); err != nil {
		return nil, err
	}
	return &resp.Dataset, nil
}

func (c *Client) DeleteDataset(ctx context.Context, id string) (*Dataset, error) {
	var resp datasetEnvelope
	if err := c.doRequest(ctx, http.MethodDelete, "/datasets/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Dataset, nil
}

// normalizeInput keeps a nil tag slice from serializing as JSON null,
// which the server rejects.
func normalizeInput(input DatasetInput) DatasetInput {
	if input.Tags == nil {
		input.Tags = []string{}
	}
	return input
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, time.Duration(attempt)*c.retryDelay); err != nil {
				return err
			}
		}

		resp, err := c.send(ctx, method, path, payload)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response body: %w", err)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = apiErrorFromBody(resp.StatusCode, respBody)
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return apiErrorFromBody(resp.StatusCode, respBody)
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func apiErrorFromBody(status int, body []byte) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error
	}
	return &APIError{Message: string(body), Status: status}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
