package emission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultClimatiqBaseURL = "https://api.climatiq.io/data/v1"

// ClimatiqClient fetches grid emission factors from the Climatiq API.
// A single attempt with a fixed timeout; callers fall back to local
// factors on any error.
type ClimatiqClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClimatiqConfig configures the Climatiq client.
type ClimatiqConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewClimatiqClient creates a Climatiq API client. Returns nil if no API
// key is configured, which disables the API tier entirely.
func NewClimatiqClient(cfg ClimatiqConfig, logger *zap.Logger) *ClimatiqClient {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultClimatiqBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &ClimatiqClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// GridFactor is an electricity emission factor returned by Climatiq.
type GridFactor struct {
	KgCO2PerKWh float64
	FactorID    string
	ValidFrom   string
}

type climatiqResponse struct {
	Results []struct {
		Factor    float64 `json:"factor"`
		FactorID  string  `json:"factor_id"`
		ValidFrom string  `json:"valid_from"`
	} `json:"results"`
}

// FetchGridFactor retrieves the most recent electricity emission factor
// for a country.
func (c *ClimatiqClient) FetchGridFactor(ctx context.Context, countryCode string) (*GridFactor, error) {
	endpoint := fmt.Sprintf("%s/emission-factors", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build climatiq request: %w", err)
	}

	params := url.Values{}
	params.Set("category", "electricity")
	params.Set("region", countryCode)
	params.Set("unit_type", "energy")
	params.Set("data_version", "latest")
	req.URL.RawQuery = params.Encode()

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("climatiq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("climatiq returned status %d", resp.StatusCode)
	}

	var body climatiqResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode climatiq response: %w", err)
	}

	if len(body.Results) == 0 {
		return nil, fmt.Errorf("climatiq returned no factors for %s", countryCode)
	}

	first := body.Results[0]
	c.logger.Debug("Fetched Climatiq grid factor",
		zap.String("country", countryCode),
		zap.Float64("factor", first.Factor),
		zap.String("factor_id", first.FactorID))

	return &GridFactor{
		KgCO2PerKWh: first.Factor,
		FactorID:    first.FactorID,
		ValidFrom:   first.ValidFrom,
	}, nil
}
