package units

import (
	"math"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
)

// Conversion factors. Metric is canonical at rest; imperial input is converted
// once on the way in and never round-tripped for storage.
const (
	lbPerKg = 2.20462
	cmPerIn = 2.54
	inPerFt = 12
)

// ToMetricWeight converts pounds to kilograms, rounded to 1 decimal.
func ToMetricWeight(lb float64) (float64, error) {
	if !isValidMeasure(lb) {
		return 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "weight must be a positive finite number, got %v", lb)
	}
	kg := lb / lbPerKg
	return math.Round(kg*10) / 10, nil
}

// ToMetricHeight converts a feet/inches pair to centimeters, rounded to the
// nearest integer.
func ToMetricHeight(feet, inches float64) (float64, error) {
	if feet < 0 || inches < 0 || math.IsNaN(feet) || math.IsNaN(inches) || math.IsInf(feet, 0) || math.IsInf(inches, 0) {
		return 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "height components must be non-negative finite numbers, got %v ft %v in", feet, inches)
	}
	if feet == 0 && inches == 0 {
		return 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "height must be greater than zero")
	}
	cm := (feet*inPerFt + inches) * cmPerIn
	return math.Round(cm), nil
}

// ToImperialWeight converts kilograms to pounds. Used for display and for
// round-trip checks; storage stays metric.
func ToImperialWeight(kg float64) (float64, error) {
	if !isValidMeasure(kg) {
		return 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "weight must be a positive finite number, got %v", kg)
	}
	return math.Round(kg*lbPerKg*10) / 10, nil
}

// ToImperialHeight converts centimeters to a feet/inches pair.
func ToImperialHeight(cm float64) (feet, inches float64, err error) {
	if !isValidMeasure(cm) {
		return 0, 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "height must be a positive finite number, got %v", cm)
	}
	totalIn := cm / cmPerIn
	feet = math.Floor(totalIn / inPerFt)
	inches = math.Round((totalIn-feet*inPerFt)*10) / 10
	if inches >= inPerFt {
		feet++
		inches -= inPerFt
	}
	return feet, inches, nil
}

func isValidMeasure(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
