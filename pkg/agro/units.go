package agro

import "math"

// Unit systems accepted by the dashboard preference key.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func KmhToMph(kmh float64) float64 {
	return kmh / 1.609344
}

func MmToInches(mm float64) float64 {
	return mm / 25.4
}

// ValidUnits reports whether s names a supported unit system.
func ValidUnits(s string) bool {
	return s == UnitsMetric || s == UnitsImperial
}

// Round1 rounds to one decimal, the display precision used across widgets.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
