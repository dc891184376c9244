// Package abuseipdb implements the HTTP client for the AbuseIPDB v2 check
// endpoint, the external reputation oracle. Transport and status failures
// are wrapped into the reputation package's oracle error taxonomy so the
// gate can log by severity without knowing HTTP.
package abuseipdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vigilops/ipsentry/internal/reputation"
)

// DefaultBaseURL is the production AbuseIPDB API root.
const DefaultBaseURL = "https://api.abuseipdb.com/api/v2"

// requestTimeout bounds one oracle call. A timeout is a failure and the
// gate fails open.
const requestTimeout = 5 * time.Second

// Client talks to the AbuseIPDB check endpoint with a static credential.
type Client struct {
	baseURL string
	key     string
	httpc   *http.Client
}

// NewClient returns a client for the given API root and credential. An
// empty baseURL selects the production endpoint.
func NewClient(baseURL, key string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
}

type checkResponse struct {
	Data checkData `json:"data"`
}

type checkData struct {
	IPAddress            string  `json:"ipAddress"`
	IsPublic             bool    `json:"isPublic"`
	AbuseConfidenceScore float64 `json:"abuseConfidenceScore"`
	CountryCode          string  `json:"countryCode"`
	UsageType            string  `json:"usageType"`
	TotalReports         int     `json:"totalReports"`
	LastReportedAt       string  `json:"lastReportedAt"`
}

// Check performs one GET /check lookup for address over the given report
// window in days.
func (c *Client) Check(ctx context.Context, address string, maxAgeDays int) (reputation.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/check", nil)
	if err != nil {
		return reputation.Report{}, fmt.Errorf("%w: build request: %v", reputation.ErrOracleUnavailable, err)
	}

	q := req.URL.Query()
	q.Set("ipAddress", address)
	q.Set("maxAgeInDays", strconv.Itoa(maxAgeDays))
	q.Set("verbose", "true")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Key", c.key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return reputation.Report{}, fmt.Errorf("%w: %v", reputation.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return reputation.Report{}, reputation.ErrOracleRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return reputation.Report{}, reputation.ErrOracleUnauthorized
	case resp.StatusCode != http.StatusOK:
		return reputation.Report{}, fmt.Errorf("%w: unexpected status %d", reputation.ErrOracleUnavailable, resp.StatusCode)
	}

	var payload checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return reputation.Report{}, fmt.Errorf("%w: decode response: %v", reputation.ErrOracleUnavailable, err)
	}

	report := reputation.Report{
		Address:     payload.Data.IPAddress,
		Confidence:  payload.Data.AbuseConfidenceScore,
		Reports:     payload.Data.TotalReports,
		UsageType:   payload.Data.UsageType,
		CountryCode: payload.Data.CountryCode,
		IsPublic:    payload.Data.IsPublic,
	}
	if payload.Data.LastReportedAt != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Data.LastReportedAt); err == nil {
			report.LastReportedAt = &ts
		}
	}
	return report, nil
}
