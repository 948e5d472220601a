package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultRequestTimeout bounds storefront calls when the caller's context
// carries no deadline of its own.
const defaultRequestTimeout = 10 * time.Second

// StorefrontClient is a Querier backed by the storefront GraphQL endpoint.
//
// It is only used when the component runs outside a host that provides its
// own query capability (local development, the CLI). Inside the checkout
// sandbox the host capability is wired in instead.
type StorefrontClient struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
}

// NewStorefrontClient creates a client for the given endpoint. The access
// token is sent on every request; httpClient may be nil for a default with
// a bounded timeout.
func NewStorefrontClient(endpoint, accessToken string, httpClient *http.Client) *StorefrontClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &StorefrontClient{
		endpoint:    endpoint,
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// Query sends one GraphQL document and decodes the response data into out.
// Non-2xx responses and GraphQL-level errors both fail the call.
func (c *StorefrontClient) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("X-Storefront-Access-Token", c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storefront request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a short prefix for diagnostics; the body is untrusted.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storefront request: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("storefront query errors: %s", strings.Join(msgs, "; "))
	}

	if out != nil && gr.Data != nil {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
