package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProcessorClient wraps interactions with the payment processor API.
type ProcessorClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewProcessorClient constructs a new client.
func NewProcessorClient(baseURL, token string) *ProcessorClient {
	return &ProcessorClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Ping checks if the remote processor is available.
func (c *ProcessorClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("processor returned status %d", resp.StatusCode)
	}
	return nil
}

// RemoteSubscription is the processor's view of a subscription.
type RemoteSubscription struct {
	Ref              string    `json:"ref"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
}

// FetchSubscription reads the current subscription state for a processor
// reference.
func (c *ProcessorClient) FetchSubscription(ctx context.Context, ref string) (*RemoteSubscription, error) {
	endpoint := fmt.Sprintf("%s/v1/subscriptions/%s", c.baseURL, url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("subscription lookup failed with status %d", resp.StatusCode)
	}
	var sub RemoteSubscription
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *ProcessorClient) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}
