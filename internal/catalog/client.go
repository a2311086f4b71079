package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const specsAccept = "application/vnd.function-definition+json"

// Fetcher retrieves catalog snapshots. Implemented by Client; substitutable
// in tests.
type Fetcher interface {
	Specs(ctx context.Context, tenant, environment string) ([]Spec, error)
}

// Client fetches function specifications from the catalog service.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a catalog client for the given base URL and service credential.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// Specs fetches the full catalog snapshot for a tenant/environment pair.
// A missing credential or a non-2xx response is a fatal precondition failure
// for the current turn; there is no retry here.
func (c *Client) Specs(ctx context.Context, tenant, environment string) ([]Spec, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("catalog: no service credential configured")
	}

	u, err := url.Parse(c.baseURL + "/specs")
	if err != nil {
		return nil, fmt.Errorf("catalog: parsing base url: %w", err)
	}
	q := u.Query()
	if tenant != "" {
		q.Set("tenant", tenant)
	}
	if environment != "" {
		q.Set("environment", environment)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", specsAccept)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetching specs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("catalog: specs returned status %d: %s", resp.StatusCode, body)
	}

	var specs []Spec
	if err := json.NewDecoder(resp.Body).Decode(&specs); err != nil {
		return nil, fmt.Errorf("catalog: decoding specs: %w", err)
	}

	return specs, nil
}
