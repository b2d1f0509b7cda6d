package bulletindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client talks to a bulletindex server over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ask sends a question scoped to a segment code (EI, AI, AF, EM).
func (c *Client) Ask(ctx context.Context, question, segment string) (AskResponse, error) {
	body, err := json.Marshal(map[string]string{
		"question": question,
		"segment":  segment,
	})
	if err != nil {
		return AskResponse{}, fmt.Errorf("encode request: %w", err)
	}

	var resp AskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/ask", bytes.NewReader(body), &resp); err != nil {
		return AskResponse{}, err
	}
	return resp, nil
}

// Segments returns the audience segments the service accepts.
func (c *Client) Segments(ctx context.Context) ([]Segment, error) {
	var resp struct {
		Segments []Segment `json:"segments"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/segments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

// DownloadDocument fetches a cited source PDF. The caller must close the
// returned reader.
func (c *Client) DownloadDocument(ctx context.Context, filename string) (io.ReadCloser, error) {
	path := "/v1/documents/" + url.PathEscape(filename)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

// Health returns the service health report. A degraded service responds
// with the report and a non-nil error.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthReport{}, err
	}
	defer resp.Body.Close()

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("service %s", report.Status)
	}
	return report, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps the server's error payload back to sentinel errors.
func decodeError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	switch er.Code {
	case "invalid_segment":
		return fmt.Errorf("%s: %w", er.Message, ErrInvalidSegment)
	case "document_not_found":
		return fmt.Errorf("%s: %w", er.Message, ErrDocumentNotFound)
	case "embedding_provider_error":
		return fmt.Errorf("%s: %w", er.Message, ErrEmbeddingProviderError)
	default:
		return fmt.Errorf("http %d: %s: %s", resp.StatusCode, er.Code, er.Message)
	}
}
