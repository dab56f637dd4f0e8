package agro

import "math"

// CropCoefficients for the mid-season stage, FAO-56 table 12 values commonly
// used around Yolo County.
var CropCoefficients = map[string]float64{
	"almond":  1.10,
	"tomato":  1.15,
	"wheat":   1.15,
	"corn":    1.20,
	"alfalfa": 0.95,
	"grape":   0.70,
}

const defaultCropCoefficient = 1.0

// CropCoefficient returns the mid-season Kc for a crop, falling back to 1.0
// for unknown crops.
func CropCoefficient(crop string) float64 {
	if kc, ok := CropCoefficients[crop]; ok {
		return kc
	}
	return defaultCropCoefficient
}

// IrrigationRequirementMm computes the net daily irrigation demand in mm:
// crop evapotranspiration (ETo * Kc) less expected precipitation, floored at
// zero.
func IrrigationRequirementMm(etoMm, kc, precipitationMm float64) float64 {
	etc := etoMm * kc
	need := etc - precipitationMm
	if need < 0 {
		return 0
	}
	return math.Round(need*100) / 100
}

// WaterVolumeLitersPerHa converts a depth of water in mm to liters per
// hectare (1 mm over 1 ha is 10,000 L).
func WaterVolumeLitersPerHa(depthMm float64) float64 {
	return depthMm * 10000
}
