package propertydata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stratadoc/internal/config"
	"stratadoc/internal/port"
)

// CoreLogicClient is a thin HTTP client for the CoreLogic Asia-Pacific API.
// CoreLogic uses OAuth client-credentials tokens, cached until shortly
// before expiry.
type CoreLogicClient struct {
	baseURL      string
	apiKey       string
	clientSecret string
	client       *http.Client
	limiter      *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewCoreLogicClient creates a CoreLogic API client.
func NewCoreLogicClient(cfg *config.PropertyProviderConfig) *CoreLogicClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &CoreLogicClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		clientSecret: cfg.ClientSecret,
		client:       &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

func (c *CoreLogicClient) Name() string { return "corelogic" }

func (c *CoreLogicClient) SuggestProperties(ctx context.Context, query string) ([]port.PropertySuggestion, error) {
	endpoint := fmt.Sprintf("%s/property/au/v2/suggest.json?q=%s", c.baseURL, url.QueryEscape(query))

	var raw struct {
		Suggestions []struct {
			PropertyID int64  `json:"propertyId"`
			Suggestion string `json:"suggestion"`
			State      string `json:"state"`
			Postcode   string `json:"postcode"`
		} `json:"suggestions"`
	}
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("corelogic suggest: %w", err)
	}

	suggestions := make([]port.PropertySuggestion, 0, len(raw.Suggestions))
	for _, s := range raw.Suggestions {
		suggestions = append(suggestions, port.PropertySuggestion{
			PropertyID: fmt.Sprintf("%d", s.PropertyID),
			Address:    s.Suggestion,
			State:      s.State,
			Postcode:   s.Postcode,
			Provider:   c.Name(),
		})
	}
	return suggestions, nil
}

func (c *CoreLogicClient) GetValuation(ctx context.Context, propertyID string) (*port.Valuation, error) {
	endpoint := fmt.Sprintf("%s/avm/au/properties/%s/avm/intellival/consumer/current", c.baseURL, url.PathEscape(propertyID))

	var raw struct {
		Estimate struct {
			LowEstimate  float64 `json:"lowEstimate"`
			Estimate     float64 `json:"estimate"`
			HighEstimate float64 `json:"highEstimate"`
			Confidence   string  `json:"scoreCategory"`
			ValuationDate string `json:"valuationDate"`
		} `json:"estimate"`
	}
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("corelogic valuation: %w", err)
	}

	return &port.Valuation{
		PropertyID:    propertyID,
		EstimateLow:   raw.Estimate.LowEstimate,
		EstimateMid:   raw.Estimate.Estimate,
		EstimateHigh:  raw.Estimate.HighEstimate,
		Confidence:    raw.Estimate.Confidence,
		ValuationDate: raw.Estimate.ValuationDate,
		Provider:      c.Name(),
	}, nil
}

func (c *CoreLogicClient) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling corelogic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("corelogic authentication failed (status %d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("corelogic API error (status %d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}

// token returns a cached OAuth access token, refreshing it when within a
// minute of expiry.
func (c *CoreLogicClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/access/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting corelogic token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("corelogic authentication failed (status %d): %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("unmarshaling token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
