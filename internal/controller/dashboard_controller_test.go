package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agri-advisor/internal/dto"
	"agri-advisor/internal/model"
	"agri-advisor/internal/pkg/logger"
	"agri-advisor/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdvisor struct {
	advisory *model.Advisory
	err      error
	resets   []string
}

func (s *stubAdvisor) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*model.Advisory, error) {
	return s.advisory, s.err
}

func (s *stubAdvisor) Reset(ctx context.Context, sessionID string) error {
	s.resets = append(s.resets, sessionID)
	return s.err
}

type stubWeather struct {
	snapshot *model.WeatherSnapshot
	gdd      float64
	accuracy *model.ForecastAccuracy
	place    *model.GeoPlace
	err      error
}

func (s *stubWeather) GetWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubWeather) GetGrowingDegreeDays(ctx context.Context, lat, lon, baseTemp float64, startDate string) (float64, error) {
	return s.gdd, s.err
}

func (s *stubWeather) GetHistorical(ctx context.Context, lat, lon float64, days int) (*model.HistoricalSummary, error) {
	return nil, s.err
}

func (s *stubWeather) GetForecastAccuracy(ctx context.Context, lat, lon float64) (*model.ForecastAccuracy, error) {
	return s.accuracy, s.err
}

func (s *stubWeather) Geocode(ctx context.Context, name string) (*model.GeoPlace, error) {
	return s.place, s.err
}

type stubSatellite struct {
	snapshot *model.SatelliteSnapshot
	err      error
}

func (s *stubSatellite) GetSatellite(ctx context.Context, lat, lon float64) (*model.SatelliteSnapshot, error) {
	return s.snapshot, s.err
}

func newTestApp(advisor *stubAdvisor, weather *stubWeather, satellite *stubSatellite) *fiber.App {
	log := logger.NewNopLogger()
	hub := websocket.NewHub(nil, log)
	ctrl := NewDashboardController(advisor, weather, satellite, hub, log)

	app := fiber.New()
	ctrl.RegisterRoutes(app.Group("/api"))
	app.Get("/ws/dashboard", ctrl.ServeWs)
	return app
}

func TestGetTelemetryRequiresCoordinates(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodGet, "/api/location/telemetry", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/location/telemetry?lat=95&lon=10", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTelemetryToleratesOneFailedProvider(t *testing.T) {
	ndvi := 0.6
	app := newTestApp(
		&stubAdvisor{},
		&stubWeather{err: errors.New("open-meteo down")},
		&stubSatellite{snapshot: &model.SatelliteSnapshot{NDVICurrent: &ndvi}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/location/telemetry?lat=38.76&lon=-121.90", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var telemetry model.Telemetry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&telemetry))
	assert.Nil(t, telemetry.Weather)
	require.NotNil(t, telemetry.Satellite)
	assert.Equal(t, 0.6, *telemetry.Satellite.NDVICurrent)
}

func TestGetTelemetryAllProvidersDown(t *testing.T) {
	app := newTestApp(
		&stubAdvisor{},
		&stubWeather{err: errors.New("down")},
		&stubSatellite{err: errors.New("down")},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/location/telemetry?lat=38.76&lon=-121.90", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetGrowingDegreeDays(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{gdd: 1234.5}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodGet, "/api/location/gdd?lat=38.76&lon=-121.90&base=10&start=2026-03-01", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1234.5, out["gdd"])
	assert.Equal(t, 10.0, out["base_temp"])
}

func TestGetHistoryValidatesDays(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodGet, "/api/location/history?lat=38.76&lon=-121.90&days=365", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGeocode(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{place: &model.GeoPlace{
		Name: "Davis", Latitude: 38.5449, Longitude: -121.7405, Admin1: "California",
	}}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodGet, "/api/location/geocode?name=Davis", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var place model.GeoPlace
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&place))
	assert.Equal(t, "Davis", place.Name)
	assert.Equal(t, 38.5449, place.Latitude)

	req = httptest.NewRequest(http.MethodGet, "/api/location/geocode", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGeocodeNotFound(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{err: errors.New("no match")}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodGet, "/api/location/geocode?name=Nowhereville", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyzeValidation(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{}, &stubSatellite{})

	cases := []struct {
		name string
		body string
	}{
		{"missing query", `{"lat":38.76,"lon":-121.90,"session_id":"abc"}`},
		{"missing session", `{"query":"q","lat":38.76,"lon":-121.90}`},
		{"lat out of range", `{"query":"q","lat":120,"lon":-121.90,"session_id":"abc"}`},
		{"not json", `hello`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAnalyzeReturnsAdvisory(t *testing.T) {
	app := newTestApp(&stubAdvisor{advisory: &model.Advisory{
		FullResponse: "Irrigate tomorrow morning.",
		Sources:      []string{"doc1"},
	}}, &stubWeather{}, &stubSatellite{})

	body := `{"query":"Should I irrigate?","lat":38.7646,"lon":-121.9018,"session_id":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var advisory model.Advisory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&advisory))
	assert.Equal(t, "Irrigate tomorrow morning.", advisory.FullResponse)
	assert.Equal(t, []string{"doc1"}, advisory.Sources)
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	app := newTestApp(&stubAdvisor{err: errors.New("advisor upstream timeout")}, &stubWeather{}, &stubSatellite{})

	body := `{"query":"q","lat":38.76,"lon":-121.90,"session_id":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "analysis failed")
}

func TestResetNotifiesService(t *testing.T) {
	advisor := &stubAdvisor{}
	app := newTestApp(advisor, &stubWeather{}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodPost, "/api/reset", strings.NewReader(`{"session_id":"abc"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"abc"}, advisor.resets)

	var out dto.ResetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "abc", out.SessionID)
}

func TestServeWsRequiresSessionID(t *testing.T) {
	app := newTestApp(&stubAdvisor{}, &stubWeather{}, &stubSatellite{})

	req := httptest.NewRequest(http.MethodGet, "/ws/dashboard", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// With a session id but no upgrade headers the handler demands one.
	req = httptest.NewRequest(http.MethodGet, "/ws/dashboard?session_id=abc", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
