package abuseipdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigilops/ipsentry/internal/reputation"
)

func TestClient_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check", r.URL.Path)
		assert.Equal(t, "203.0.113.5", r.URL.Query().Get("ipAddress"))
		assert.Equal(t, "90", r.URL.Query().Get("maxAgeInDays"))
		assert.Equal(t, "true", r.URL.Query().Get("verbose"))
		assert.Equal(t, "test-key", r.Header.Get("Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"ipAddress": "203.0.113.5",
				"isPublic": true,
				"abuseConfidenceScore": 92,
				"countryCode": "CN",
				"usageType": "Data Center/Web Hosting/Transit",
				"totalReports": 14,
				"lastReportedAt": "2024-05-30T08:15:00+00:00"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	report, err := client.Check(context.Background(), "203.0.113.5", 90)
	assert.NoError(t, err)
	assert.Equal(t, "203.0.113.5", report.Address)
	assert.Equal(t, 92.0, report.Confidence)
	assert.Equal(t, 14, report.Reports)
	assert.Equal(t, "CN", report.CountryCode)
	assert.Equal(t, "Data Center/Web Hosting/Transit", report.UsageType)
	assert.True(t, report.IsPublic)
	if assert.NotNil(t, report.LastReportedAt) {
		assert.Equal(t, time.Date(2024, 5, 30, 8, 15, 0, 0, time.UTC), report.LastReportedAt.UTC())
	}
}

func TestClient_CheckStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, reputation.ErrOracleRateLimited},
		{"unauthorized", http.StatusUnauthorized, reputation.ErrOracleUnauthorized},
		{"server error", http.StatusInternalServerError, reputation.ErrOracleUnavailable},
		{"unexpected", http.StatusBadGateway, reputation.ErrOracleUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key")
			_, err := client.Check(context.Background(), "203.0.113.5", 90)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_CheckMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": `))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.Check(context.Background(), "203.0.113.5", 90)
	assert.ErrorIs(t, err, reputation.ErrOracleUnavailable)
}

func TestClient_CheckTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL, "test-key")
	_, err := client.Check(context.Background(), "203.0.113.5", 90)
	assert.ErrorIs(t, err, reputation.ErrOracleUnavailable)
}

func TestClient_CheckMissingLastReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"ipAddress": "198.51.100.9", "abuseConfidenceScore": 0, "totalReports": 0, "lastReportedAt": null}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	report, err := client.Check(context.Background(), "198.51.100.9", 90)
	assert.NoError(t, err)
	assert.Nil(t, report.LastReportedAt)
	assert.Equal(t, 0.0, report.Confidence)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("", "key")
	assert.Equal(t, DefaultBaseURL, client.baseURL)

	client = NewClient("https://example.test/api/v2/", "key")
	assert.Equal(t, "https://example.test/api/v2", client.baseURL)
}
