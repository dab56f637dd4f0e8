// Package agro holds the closed-form agronomy calculations behind the
// dashboard widgets: degree-day accumulation, irrigation demand, risk
// classification and forecast scoring.
package agro

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// SprayDriftRisk classifies drift risk from wind speed in km/h.
func SprayDriftRisk(windSpeedKmh float64) string {
	switch {
	case windSpeedKmh > 15:
		return RiskHigh
	case windSpeedKmh > 8:
		return RiskMedium
	default:
		return RiskLow
	}
}

// FungalRisk classifies fungal disease pressure from relative humidity (%)
// and air temperature (degrees C). Most fungal pathogens favor high humidity
// at moderate temperatures.
func FungalRisk(humidityPct, temperatureC float64) string {
	switch {
	case humidityPct > 80 && temperatureC > 15 && temperatureC < 30:
		return RiskHigh
	case humidityPct > 60 && temperatureC > 10 && temperatureC < 35:
		return RiskMedium
	default:
		return RiskLow
	}
}

// WaterStress classifies crop water stress from NDVI and surface soil
// moisture (volumetric fraction).
func WaterStress(ndvi, soilMoisture float64) string {
	switch {
	case ndvi < 0.3 && soilMoisture < 0.15:
		return RiskHigh
	case ndvi < 0.5 || soilMoisture < 0.25:
		return RiskMedium
	default:
		return RiskLow
	}
}
