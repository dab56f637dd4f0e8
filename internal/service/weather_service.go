package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agri-advisor/internal/config"
	"agri-advisor/internal/model"
	"agri-advisor/internal/pkg/logger"
	"agri-advisor/pkg/agro"

	"github.com/patrickmn/go-cache"
)

type IWeatherService interface {
	GetWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error)
	GetGrowingDegreeDays(ctx context.Context, lat, lon, baseTemp float64, startDate string) (float64, error)
	GetHistorical(ctx context.Context, lat, lon float64, days int) (*model.HistoricalSummary, error)
	GetForecastAccuracy(ctx context.Context, lat, lon float64) (*model.ForecastAccuracy, error)
	Geocode(ctx context.Context, name string) (*model.GeoPlace, error)
}

type weatherService struct {
	cfg        config.WeatherConfig
	httpClient *http.Client
	cache      *cache.Cache
	logger     logger.ILogger
}

func NewWeatherService(cfg config.WeatherConfig, log logger.ILogger) IWeatherService {
	return &weatherService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache.New(cfg.CacheTTL, 10*time.Minute),
		logger: log,
	}
}

// openMeteoResponse covers both the forecast and archive endpoints; each
// request only populates the blocks it asked for.
type openMeteoResponse struct {
	Current struct {
		Temperature2m      *float64 `json:"temperature_2m"`
		RelativeHumidity2m *float64 `json:"relative_humidity_2m"`
		Precipitation      *float64 `json:"precipitation"`
		WindSpeed10m       *float64 `json:"wind_speed_10m"`
		WindDirection10m   *int     `json:"wind_direction_10m"`
	} `json:"current"`
	Hourly struct {
		SoilMoisture0To7Cm    []*float64 `json:"soil_moisture_0_to_7cm"`
		SoilMoisture7To28Cm   []*float64 `json:"soil_moisture_7_to_28cm"`
		SoilMoisture28To100Cm []*float64 `json:"soil_moisture_28_to_100cm"`
		ET0                   []*float64 `json:"et0_fao_evapotranspiration"`
	} `json:"hourly"`
	Daily struct {
		Time             []string   `json:"time"`
		Temperature2mMax []*float64 `json:"temperature_2m_max"`
		Temperature2mMin []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		ET0              []*float64 `json:"et0_fao_evapotranspiration"`
		HumidityMean     []*float64 `json:"relative_humidity_2m_mean"`
	} `json:"daily"`
}

func (s *weatherService) GetWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error) {
	cacheKey := fmt.Sprintf("weather:%.4f,%.4f", lat, lon)
	if x, found := s.cache.Get(cacheKey); found {
		return x.(*model.WeatherSnapshot), nil
	}

	params := url.Values{
		"latitude":  {fmt.Sprintf("%.4f", lat)},
		"longitude": {fmt.Sprintf("%.4f", lon)},
		"current": {strings.Join([]string{
			"temperature_2m",
			"relative_humidity_2m",
			"precipitation",
			"wind_speed_10m",
			"wind_direction_10m",
		}, ",")},
		"hourly": {strings.Join([]string{
			"soil_moisture_0_to_7cm",
			"soil_moisture_7_to_28cm",
			"soil_moisture_28_to_100cm",
			"et0_fao_evapotranspiration",
		}, ",")},
		"daily": {strings.Join([]string{
			"temperature_2m_max",
			"temperature_2m_min",
			"precipitation_sum",
			"et0_fao_evapotranspiration",
		}, ",")},
		"timezone":      {s.cfg.Timezone},
		"forecast_days": {"7"},
	}

	var resp openMeteoResponse
	if err := s.doRequest(ctx, s.cfg.ForecastURL, params, &resp); err != nil {
		return nil, err
	}

	// Current hour's agricultural data from the hourly series.
	currentHour := time.Now().Hour()
	hourlyVal := func(vals []*float64, fallback float64) float64 {
		if len(vals) > currentHour && vals[currentHour] != nil {
			return *vals[currentHour]
		}
		return fallback
	}

	temp := 20.0
	if resp.Current.Temperature2m != nil {
		temp = *resp.Current.Temperature2m
	}
	humidity := 50.0
	if resp.Current.RelativeHumidity2m != nil {
		humidity = *resp.Current.RelativeHumidity2m
	}
	windSpeed := 0.0
	if resp.Current.WindSpeed10m != nil {
		windSpeed = *resp.Current.WindSpeed10m
	}
	precipitation := 0.0
	if resp.Current.Precipitation != nil {
		precipitation = *resp.Current.Precipitation
	}
	windDirection := 0
	if resp.Current.WindDirection10m != nil {
		windDirection = *resp.Current.WindDirection10m
	}

	snapshot := &model.WeatherSnapshot{
		Timestamp:           time.Now(),
		Latitude:            lat,
		Longitude:           lon,
		TemperatureC:        temp,
		RelativeHumidity:    humidity,
		PrecipitationMm:     precipitation,
		WindSpeedKmh:        windSpeed,
		WindDirection:       windDirection,
		SoilMoistureSurface: hourlyVal(resp.Hourly.SoilMoisture0To7Cm, 0.3),
		SoilMoistureRoot:    hourlyVal(resp.Hourly.SoilMoisture7To28Cm, 0.3),
		SoilMoistureDeep:    hourlyVal(resp.Hourly.SoilMoisture28To100Cm, 0.35),
		ReferenceET:         hourlyVal(resp.Hourly.ET0, 0),
		SprayDriftRisk:      agro.SprayDriftRisk(windSpeed),
		FungalRisk:          agro.FungalRisk(humidity, temp),
	}

	for i, date := range resp.Daily.Time {
		day := model.ForecastDay{
			Date:         date,
			HumidityMean: 65, // Approximate from hourly if needed
		}
		if i < len(resp.Daily.Temperature2mMax) && resp.Daily.Temperature2mMax[i] != nil {
			day.TempMax = *resp.Daily.Temperature2mMax[i]
		}
		if i < len(resp.Daily.Temperature2mMin) && resp.Daily.Temperature2mMin[i] != nil {
			day.TempMin = *resp.Daily.Temperature2mMin[i]
		}
		if i < len(resp.Daily.PrecipitationSum) && resp.Daily.PrecipitationSum[i] != nil {
			day.PrecipitationSum = *resp.Daily.PrecipitationSum[i]
		}
		if i < len(resp.Daily.ET0) && resp.Daily.ET0[i] != nil {
			day.ETo = *resp.Daily.ET0[i]
		}
		snapshot.Forecast = append(snapshot.Forecast, day)
	}

	s.cache.Set(cacheKey, snapshot, cache.DefaultExpiration)
	return snapshot, nil
}

func (s *weatherService) GetGrowingDegreeDays(ctx context.Context, lat, lon, baseTemp float64, startDate string) (float64, error) {
	if startDate == "" {
		startDate = fmt.Sprintf("%d-01-01", time.Now().Year())
	}

	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {startDate},
		"end_date":   {time.Now().Format("2006-01-02")},
		"daily":      {"temperature_2m_max,temperature_2m_min"},
		"timezone":   {s.cfg.Timezone},
	}

	var resp openMeteoResponse
	if err := s.doRequest(ctx, s.cfg.ArchiveURL, params, &resp); err != nil {
		// Archive outages should not blank the widget; fall back to a rough
		// seasonal estimate for the Central Valley.
		s.logger.Warn("WeatherService", "GDD archive request failed, using estimate", map[string]interface{}{"error": err.Error()})
		daysSinceJan1 := int(time.Since(time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.Local)).Hours() / 24)
		return agro.Round1(float64(daysSinceJan1) * 8.5), nil
	}

	tMax := dereferenceSeries(resp.Daily.Temperature2mMax)
	tMin := dereferenceSeries(resp.Daily.Temperature2mMin)
	return agro.GrowingDegreeDays(tMax, tMin, baseTemp), nil
}

func (s *weatherService) GetHistorical(ctx context.Context, lat, lon float64, days int) (*model.HistoricalSummary, error) {
	// Archive data lags by about a day.
	endDate := time.Now().AddDate(0, 0, -1)
	startDate := endDate.AddDate(0, 0, -days)

	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {startDate.Format("2006-01-02")},
		"end_date":   {endDate.Format("2006-01-02")},
		"daily": {strings.Join([]string{
			"temperature_2m_max",
			"temperature_2m_min",
			"precipitation_sum",
			"relative_humidity_2m_mean",
		}, ",")},
		"timezone": {s.cfg.Timezone},
	}

	summary := &model.HistoricalSummary{
		PeriodStart: startDate.Format("2006-01-02"),
		PeriodEnd:   endDate.Format("2006-01-02"),
	}

	var resp openMeteoResponse
	if err := s.doRequest(ctx, s.cfg.ArchiveURL, params, &resp); err != nil {
		return nil, err
	}

	totalPrecip := 0.0
	tempSum := 0.0
	humiditySum := 0.0
	validCount := 0
	humidityCount := 0

	at := func(vals []*float64, i int) *float64 {
		if i < len(vals) {
			return vals[i]
		}
		return nil
	}

	for i, date := range resp.Daily.Time {
		tmax := at(resp.Daily.Temperature2mMax, i)
		tmin := at(resp.Daily.Temperature2mMin, i)
		p := at(resp.Daily.PrecipitationSum, i)
		h := at(resp.Daily.HumidityMean, i)

		summary.Days = append(summary.Days, model.HistoricalDay{
			Date:             date,
			TempMax:          tmax,
			TempMin:          tmin,
			PrecipitationSum: p,
			HumidityMean:     h,
		})

		if tmax != nil && tmin != nil {
			tempSum += (*tmax + *tmin) / 2
			validCount++
		}
		if p != nil {
			totalPrecip += *p
		}
		if h != nil {
			humiditySum += *h
			humidityCount++
		}
	}

	if validCount > 0 {
		avg := agro.Round1(tempSum / float64(validCount))
		summary.AvgTemp = &avg
	}
	tp := agro.Round1(totalPrecip)
	summary.TotalPrecipitation = &tp
	if humidityCount > 0 {
		avg := agro.Round1(humiditySum / float64(humidityCount))
		summary.AvgHumidity = &avg
	}

	return summary, nil
}

func (s *weatherService) GetForecastAccuracy(ctx context.Context, lat, lon float64) (*model.ForecastAccuracy, error) {
	yesterday := time.Now().AddDate(0, 0, -1)
	twoDaysAgo := time.Now().AddDate(0, 0, -2)

	result := &model.ForecastAccuracy{
		Date: yesterday.Format("2006-01-02"),
	}

	// Actual conditions for yesterday from the archive.
	actualParams := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {yesterday.Format("2006-01-02")},
		"end_date":   {yesterday.Format("2006-01-02")},
		"daily":      {"temperature_2m_max,temperature_2m_min,precipitation_sum"},
		"timezone":   {s.cfg.Timezone},
	}

	var actual openMeteoResponse
	if err := s.doRequest(ctx, s.cfg.ArchiveURL, actualParams, &actual); err != nil {
		return nil, err
	}

	first := func(vals []*float64) *float64 {
		if len(vals) > 0 {
			return vals[0]
		}
		return nil
	}
	last := func(vals []*float64) *float64 {
		if len(vals) > 0 {
			return vals[len(vals)-1]
		}
		return nil
	}

	result.ActualTempMax = first(actual.Daily.Temperature2mMax)
	result.ActualTempMin = first(actual.Daily.Temperature2mMin)
	result.ActualPrecipitation = first(actual.Daily.PrecipitationSum)

	// What the model predicted for yesterday, as seen two days ago.
	forecastParams := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {twoDaysAgo.Format("2006-01-02")},
		"end_date":   {yesterday.Format("2006-01-02")},
		"daily":      {"temperature_2m_max,temperature_2m_min,precipitation_sum"},
		"timezone":   {s.cfg.Timezone},
	}

	var predicted openMeteoResponse
	if err := s.doRequest(ctx, s.cfg.ForecastURL, forecastParams, &predicted); err != nil {
		return nil, err
	}

	result.PredictedTempMax = last(predicted.Daily.Temperature2mMax)
	result.PredictedTempMin = last(predicted.Daily.Temperature2mMin)
	result.PredictedPrecipitation = last(predicted.Daily.PrecipitationSum)

	score := agro.ScoreForecast(
		result.ActualTempMax, result.ActualTempMin, result.ActualPrecipitation,
		result.PredictedTempMax, result.PredictedTempMin, result.PredictedPrecipitation,
	)
	result.TempAccuracyPct = score.TempAccuracyPct
	result.PrecipAccuracyPct = score.PrecipAccuracyPct
	result.OverallAccuracyPct = score.OverallAccuracyPct

	return result, nil
}

// Geocode resolves a place name to coordinates via the Open-Meteo geocoding
// API, returning the best match.
func (s *weatherService) Geocode(ctx context.Context, name string) (*model.GeoPlace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty place name")
	}

	cacheKey := "geocode:" + strings.ToLower(name)
	if x, found := s.cache.Get(cacheKey); found {
		return x.(*model.GeoPlace), nil
	}

	params := url.Values{
		"name":  {name},
		"count": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.GeocodingURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoding API error: status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Results []model.GeoPlace `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("no match for %q", name)
	}

	place := &result.Results[0]
	s.cache.Set(cacheKey, place, cache.DefaultExpiration)
	return place, nil
}

func (s *weatherService) doRequest(ctx context.Context, baseURL string, params url.Values, out *openMeteoResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func dereferenceSeries(vals []*float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}
