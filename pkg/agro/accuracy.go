package agro

import "math"

// AccuracyScore is the outcome of comparing a forecast against observations.
// Nil fields mean the underlying data was unavailable.
type AccuracyScore struct {
	TempAccuracyPct    *float64
	PrecipAccuracyPct  *float64
	OverallAccuracyPct *float64
}

// Overall accuracy weights temperature over precipitation because growers
// act on temperature daily while rain forecasts are inherently noisier.
const (
	tempWeight   = 0.7
	precipWeight = 0.3
)

// ScoreForecast compares predicted vs actual daily values and returns
// percentage accuracies. Any nil input disables the corresponding component.
func ScoreForecast(actualTMax, actualTMin, actualPrecip, predTMax, predTMin, predPrecip *float64) AccuracyScore {
	var score AccuracyScore

	if actualTMax != nil && predTMax != nil {
		maxErr := math.Abs(*actualTMax - *predTMax)
		minErr := 0.0
		if actualTMin != nil && predTMin != nil {
			minErr = math.Abs(*actualTMin - *predTMin)
		}
		avgErr := (maxErr + minErr) / 2
		denom := math.Max(math.Abs(*actualTMax), 1)
		acc := Round1(math.Max(0, 100-(avgErr/denom*100)))
		score.TempAccuracyPct = &acc
	}

	if actualPrecip != nil && predPrecip != nil {
		var acc float64
		switch {
		case *actualPrecip == 0 && *predPrecip == 0:
			acc = 100.0
		case *actualPrecip == 0:
			acc = math.Max(0, 100-*predPrecip*10)
		default:
			acc = Round1(math.Max(0, 100-math.Abs(*actualPrecip-*predPrecip)/ *actualPrecip*100))
		}
		score.PrecipAccuracyPct = &acc
	}

	if score.TempAccuracyPct != nil && score.PrecipAccuracyPct != nil {
		overall := Round1(*score.TempAccuracyPct*tempWeight + *score.PrecipAccuracyPct*precipWeight)
		score.OverallAccuracyPct = &overall
	} else if score.TempAccuracyPct != nil {
		overall := *score.TempAccuracyPct
		score.OverallAccuracyPct = &overall
	}

	return score
}
