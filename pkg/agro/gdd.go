package agro

import "math"

// DefaultGDDBaseTemp is the conventional base temperature (degrees C) for
// most row crops when no crop-specific base is supplied.
const DefaultGDDBaseTemp = 10.0

// GrowingDegreeDays accumulates GDD over paired daily max/min temperature
// series. Days where either value is missing (NaN) are skipped. The result is
// rounded to one decimal.
func GrowingDegreeDays(tMax, tMin []float64, baseTemp float64) float64 {
	n := len(tMax)
	if len(tMin) < n {
		n = len(tMin)
	}

	total := 0.0
	for i := 0; i < n; i++ {
		if math.IsNaN(tMax[i]) || math.IsNaN(tMin[i]) {
			continue
		}
		avg := (tMax[i] + tMin[i]) / 2
		if gdd := avg - baseTemp; gdd > 0 {
			total += gdd
		}
	}
	return math.Round(total*10) / 10
}
