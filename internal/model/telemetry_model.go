package model

import "time"

// WeatherSnapshot is the weather half of a telemetry payload. JSON keys match
// what the dashboard frontend consumes, so they stay snake_case and explicit.
type WeatherSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	// Current conditions
	TemperatureC     float64 `json:"temperature_c"`
	RelativeHumidity float64 `json:"relative_humidity"`
	PrecipitationMm  float64 `json:"precipitation_mm"`
	WindSpeedKmh     float64 `json:"wind_speed_kmh"`
	WindDirection    int     `json:"wind_direction"`

	// Agricultural-specific
	SoilMoistureSurface float64 `json:"soil_moisture_0_7cm"`
	SoilMoistureRoot    float64 `json:"soil_moisture_7_28cm"`
	SoilMoistureDeep    float64 `json:"soil_moisture_28_100cm"`
	ReferenceET         float64 `json:"reference_evapotranspiration"`

	// Risk factors
	SprayDriftRisk string `json:"spray_drift_risk"`
	FungalRisk     string `json:"fungal_risk"`

	Forecast []ForecastDay `json:"forecast"`
}

type ForecastDay struct {
	Date             string  `json:"date"`
	TempMax          float64 `json:"temp_max"`
	TempMin          float64 `json:"temp_min"`
	PrecipitationSum float64 `json:"precipitation_sum"`
	HumidityMean     float64 `json:"humidity_mean"`
	ETo              float64 `json:"eto"`
}

// SatelliteSnapshot carries vegetation metrics for a field. NDVI values are
// pointers because their absence is meaningful: a payload without
// ndvi_current must not overwrite a previously cached snapshot.
type SatelliteSnapshot struct {
	NDVICurrent  *float64 `json:"ndvi_current,omitempty"`
	NDVIPrevious *float64 `json:"ndvi_previous,omitempty"`
	WaterStress  string   `json:"water_stress,omitempty"`
	TileURL      string   `json:"tile_url,omitempty"`
	IsMock       bool     `json:"is_mock"`
	CapturedAt   string   `json:"captured_at,omitempty"`
}

// Telemetry is the combined payload served by GET /api/location/telemetry.
type Telemetry struct {
	Weather   *WeatherSnapshot   `json:"weather_data,omitempty"`
	Satellite *SatelliteSnapshot `json:"satellite_data,omitempty"`
}

// HistoricalSummary aggregates archive data for the trailing window.
type HistoricalSummary struct {
	Days               []HistoricalDay `json:"days"`
	PeriodStart        string          `json:"period_start"`
	PeriodEnd          string          `json:"period_end"`
	AvgTemp            *float64        `json:"avg_temp"`
	TotalPrecipitation *float64        `json:"total_precipitation"`
	AvgHumidity        *float64        `json:"avg_humidity"`
}

type HistoricalDay struct {
	Date             string   `json:"date"`
	TempMax          *float64 `json:"temp_max"`
	TempMin          *float64 `json:"temp_min"`
	PrecipitationSum *float64 `json:"precipitation_sum"`
	HumidityMean     *float64 `json:"humidity_mean"`
}

// GeoPlace is one geocoder match for a place-name search.
type GeoPlace struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Admin1    string  `json:"admin1,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// ForecastAccuracy compares yesterday's forecast against what was observed.
type ForecastAccuracy struct {
	Date                   string   `json:"date"`
	PredictedTempMax       *float64 `json:"predicted_temp_max"`
	ActualTempMax          *float64 `json:"actual_temp_max"`
	PredictedTempMin       *float64 `json:"predicted_temp_min"`
	ActualTempMin          *float64 `json:"actual_temp_min"`
	PredictedPrecipitation *float64 `json:"predicted_precipitation"`
	ActualPrecipitation    *float64 `json:"actual_precipitation"`
	TempAccuracyPct        *float64 `json:"temp_accuracy_pct"`
	PrecipAccuracyPct      *float64 `json:"precip_accuracy_pct"`
	OverallAccuracyPct     *float64 `json:"overall_accuracy_pct"`
}
