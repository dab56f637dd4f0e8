package dashclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultRequestTimeout bounds every gateway call; advisory generation is
// the slow path and sets the ceiling.
const DefaultRequestTimeout = 30 * time.Second

// Telemetry is the combined weather and satellite fetch for one point.
type Telemetry struct {
	Weather   *Weather   `json:"weather_data"`
	Satellite *Satellite `json:"satellite_data"`
}

// AnalyzeResult is the gateway's advisory response.
type AnalyzeResult struct {
	FullResponse  string                   `json:"full_response"`
	VoiceResponse string                   `json:"voice_response"`
	Sources       []string                 `json:"sources"`
	RAGResults    []Citation               `json:"rag_results"`
	MarketData    []MarketQuote            `json:"market_data"`
	ChemicalData  []ChemicalRecommendation `json:"chemical_data"`
	Weather       *Weather                 `json:"weather_data"`
	Satellite     *Satellite               `json:"satellite_data"`
	Latitude      *float64                 `json:"lat"`
	Longitude     *float64                 `json:"lon"`
	Address       string                   `json:"location_address"`
	Timestamp     string                   `json:"timestamp"`
}

type analyzeRequest struct {
	Query     string  `json:"query"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	SessionID string  `json:"session_id"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// apiError is the gateway's failure envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIClient talks to the gateway's REST surface.
type APIClient struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

func NewAPIClient(baseURL string, timeout time.Duration, log Logger) *APIClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// FetchTelemetry retrieves current conditions for a coordinate pair.
func (c *APIClient) FetchTelemetry(ctx context.Context, lat, lon float64) (*Telemetry, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var out Telemetry
	if err := c.do(ctx, http.MethodGet, "/api/location/telemetry?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze submits a query for the given session and location.
func (c *APIClient) Analyze(ctx context.Context, sessionID, query string, lat, lon float64) (*AnalyzeResult, error) {
	req := analyzeRequest{
		Query:     query,
		Latitude:  lat,
		Longitude: lon,
		SessionID: sessionID,
	}

	var out AnalyzeResult
	if err := c.do(ctx, http.MethodPost, "/api/analyze", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset asks the gateway to discard server-side history for the session.
func (c *APIClient) Reset(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/api/reset", resetRequest{SessionID: sessionID}, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("gateway error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("gateway error %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
