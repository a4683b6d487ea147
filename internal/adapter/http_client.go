package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	m "docmig.dev/pkg/docmig/internal/model"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	userAgent          = "docmig"
	maxErrorBody       = 4096
)

// APIError is a non-2xx response from the store API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client performs authenticated calls against the store API.
type Client struct {
	config APIConfig
	http   *http.Client
}

// NewClient constructs a Client. A nil httpClient uses a client with a default timeout.
func NewClient(config APIConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Client{config: config, http: httpClient}
}

// Config returns the API configuration.
func (c *Client) Config() APIConfig {
	return c.config
}

// Do sends a request for endpoint and returns the response when its status is 2xx.
// The caller closes the response body.
func (c *Client) Do(ctx context.Context, endpoint Endpoint, body io.Reader) (*http.Response, error) {
	target, err := c.config.URL(endpoint)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, endpoint.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	slog.Debug("Sending request", "method", endpoint.Method, "path", endpoint.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", endpoint.Method, endpoint.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()

		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &APIError{Method: endpoint.Method, URL: target, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
	}

	return resp, nil
}

// HTTPExportSource streams documents from the export endpoint.
type HTTPExportSource struct {
	client        *Client
	documentTypes []string
}

// NewHTTPExportSource constructs a source exporting documentTypes from the
// client's dataset.
func NewHTTPExportSource(client *Client, documentTypes []string) *HTTPExportSource {
	return &HTTPExportSource{client: client, documentTypes: documentTypes}
}

// Documents implements DocumentSource. The response body is closed when
// iteration ends.
func (s *HTTPExportSource) Documents(ctx context.Context) iter.Seq2[m.Document, error] {
	return func(yield func(m.Document, error) bool) {
		endpoint := DataExportEndpoint(s.client.config.Dataset, s.documentTypes)

		resp, err := s.client.Do(ctx, endpoint, nil)
		if err != nil {
			yield(nil, fmt.Errorf("export: %w", err))
			return
		}

		defer func() {
			if err := resp.Body.Close(); err != nil {
				slog.Error("failed to close export response", "error", err)
			}
		}()

		decodeNDJSON(ctx, resp.Body, "export", yield)
	}
}

// HTTPMutateSink submits each batch as one transaction to the mutate endpoint.
type HTTPMutateSink struct {
	client  *Client
	options MutateOptions
	newID   func() string
}

// NewHTTPMutateSink constructs a sink posting to the client's dataset.
func NewHTTPMutateSink(client *Client, options MutateOptions) *HTTPMutateSink {
	return &HTTPMutateSink{client: client, options: options, newID: uuid.NewString}
}

type mutateRequest struct {
	Mutations     []m.Object `json:"mutations"`
	TransactionID string     `json:"transactionId"`
}

// Submit implements MutationSink.
func (s *HTTPMutateSink) Submit(ctx context.Context, batch m.MutationBatch) error {
	mutations, err := EncodeWireMutations(batch)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(mutateRequest{Mutations: mutations, TransactionID: s.newID()})
	if err != nil {
		return fmt.Errorf("encode mutations: %w", err)
	}

	endpoint := DataMutateEndpoint(s.client.config.Dataset, s.options)

	resp, err := s.client.Do(ctx, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mutate: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Close implements MutationSink.
func (s *HTTPMutateSink) Close() error {
	return nil
}
