package predict

import "math"

const (
	LabelPneumonia = "Pneumonia"
	LabelNormal    = "Normal"

	// Threshold is fixed. A raw output of exactly 0.5 is Normal.
	Threshold = 0.5
)

// Classify maps the raw model output, P(pneumonia), to a label and the
// probability of that label.
func Classify(raw float32) (string, float64) {
	p := float64(raw)
	if p > Threshold {
		return LabelPneumonia, p
	}
	return LabelNormal, 1 - p
}

// Percent converts a confidence to a percentage rounded to two decimals.
func Percent(confidence float64) float64 {
	return math.Round(confidence*100*100) / 100
}
