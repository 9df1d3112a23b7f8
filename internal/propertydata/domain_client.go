package propertydata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"stratadoc/internal/config"
	"stratadoc/internal/port"
)

// DomainClient is a thin HTTP client for the Domain property API. Calls are
// throttled client-side; Domain enforces per-key quotas.
type DomainClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewDomainClient creates a Domain API client.
func NewDomainClient(cfg *config.PropertyProviderConfig) *DomainClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &DomainClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

func (c *DomainClient) Name() string { return "domain" }

func (c *DomainClient) SuggestProperties(ctx context.Context, query string) ([]port.PropertySuggestion, error) {
	endpoint := fmt.Sprintf("%s/v1/properties/_suggest?terms=%s", c.baseURL, url.QueryEscape(query))

	var raw []struct {
		ID      string `json:"id"`
		Address struct {
			DisplayAddress string `json:"displayAddress"`
			State          string `json:"state"`
			Postcode       string `json:"postcode"`
		} `json:"addressComponents"`
	}
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("domain suggest: %w", err)
	}

	suggestions := make([]port.PropertySuggestion, 0, len(raw))
	for _, r := range raw {
		suggestions = append(suggestions, port.PropertySuggestion{
			PropertyID: r.ID,
			Address:    r.Address.DisplayAddress,
			State:      r.Address.State,
			Postcode:   r.Address.Postcode,
			Provider:   c.Name(),
		})
	}
	return suggestions, nil
}

func (c *DomainClient) GetValuation(ctx context.Context, propertyID string) (*port.Valuation, error) {
	endpoint := fmt.Sprintf("%s/v1/properties/%s/priceEstimate", c.baseURL, url.PathEscape(propertyID))

	var raw struct {
		LowerPrice float64 `json:"lowerPrice"`
		MidPrice   float64 `json:"midPrice"`
		UpperPrice float64 `json:"upperPrice"`
		Confidence string  `json:"priceConfidence"`
		Date       string  `json:"date"`
	}
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("domain valuation: %w", err)
	}

	return &port.Valuation{
		PropertyID:    propertyID,
		EstimateLow:   raw.LowerPrice,
		EstimateMid:   raw.MidPrice,
		EstimateHigh:  raw.UpperPrice,
		Confidence:    raw.Confidence,
		ValuationDate: raw.Date,
		Provider:      c.Name(),
	}, nil
}

func (c *DomainClient) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling domain API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("domain API error (status %d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}
