package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/session"
	"github.com/alfredjeanlab/admatrix/internal/sheet"
)

// HTTPClient implements MatrixClient using the admatrix HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Sessions ---

func (c *HTTPClient) CreateSession(ctx context.Context) (*session.Summary, error) {
	var s session.Summary
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]session.Summary, error) {
	var resp struct {
		Sessions []session.Summary `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}

// --- Dependencies ---

func (c *HTTPClient) AddDependency(ctx context.Context, sessionID string, row sheet.Row) (*AddDependencyResponse, error) {
	var resp AddDependencyResponse
	if err := c.doJSON(ctx, http.MethodPost, sessionPath(sessionID)+"/dependencies", row, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListDependencies(ctx context.Context, sessionID string) ([]model.Dependency, error) {
	var resp struct {
		Dependencies []model.Dependency `json:"dependencies"`
	}
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID)+"/dependencies", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dependencies, nil
}

func (c *HTTPClient) SetDirections(ctx context.Context, sessionID string, index int, temporal, existential model.Direction) (*model.Dependency, error) {
	body := map[string]string{}
	if temporal != "" {
		body["temporal_direction"] = string(temporal)
	}
	if existential != "" {
		body["existential_direction"] = string(existential)
	}
	var d model.Dependency
	if err := c.doJSON(ctx, http.MethodPatch, dependencyPath(sessionID, index), body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTPClient) RemoveDependency(ctx context.Context, sessionID string, index int) error {
	return c.doJSON(ctx, http.MethodDelete, dependencyPath(sessionID, index), nil, nil)
}

func (c *HTTPClient) Activities(ctx context.Context, sessionID string) ([]string, error) {
	var resp struct {
		Activities []string `json:"activities"`
	}
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID)+"/activities", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

// --- Export ---

// Matrix returns the session's document as YAML text.
func (c *HTTPClient) Matrix(ctx context.Context, sessionID string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, sessionPath(sessionID)+"/matrix", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

// MatrixDocument returns the session's document decoded from its JSON form.
func (c *HTTPClient) MatrixDocument(ctx context.Context, sessionID string) (*matrix.Document, error) {
	var doc matrix.Document
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID)+"/matrix?format=json", nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

func sessionPath(id string) string {
	return "/v1/sessions/" + url.PathEscape(id)
}

func dependencyPath(sessionID string, index int) string {
	return sessionPath(sessionID) + "/dependencies/" + strconv.Itoa(index)
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// apiError builds an APIError from a response body, preferring the JSON
// {"error": ...} message when present.
func apiError(status int, body []byte) *APIError {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// do sends a request with an optional JSON body and returns the raw response.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	return resp, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
