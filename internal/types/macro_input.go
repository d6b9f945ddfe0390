package types

import "encoding/json"

// Enumerations accepted by the macro calculator. Values mirror what clients
// send over the wire.
const (
	SexMale   = "male"
	SexFemale = "female"
	SexOther  = "other"

	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"

	GoalWeightLoss = "weight_loss"
	GoalMaintain   = "maintenance"
	GoalMuscleGain = "muscle_gain"

	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

// HeightInput accepts either a plain centimeter value or a feet/inches pair
// (imperial only).
type HeightInput struct {
	Cm     float64 `json:"cm,omitempty"`
	Feet   float64 `json:"feet,omitempty"`
	Inches float64 `json:"inches,omitempty"`
}

// UnmarshalJSON accepts both wire forms: a bare number (centimeters) or an
// object with feet/inches.
func (h *HeightInput) UnmarshalJSON(data []byte) error {
	var cm float64
	if err := json.Unmarshal(data, &cm); err == nil {
		h.Cm = cm
		h.Feet = 0
		h.Inches = 0
		return nil
	}
	type heightObject HeightInput
	var obj heightObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*h = HeightInput(obj)
	return nil
}

// MacroCalculationInput is the wire shape for macro target calculation.
// Weight/height are interpreted per Units; they are converted to metric
// before any formula runs.
type MacroCalculationInput struct {
	Weight        float64     `json:"weight"`
	Height        HeightInput `json:"height"`
	Age           int         `json:"age"`
	Sex           string      `json:"sex"`
	ActivityLevel string      `json:"activityLevel"`
	Goal          string      `json:"goal"`
	Units         string      `json:"units"`
}
