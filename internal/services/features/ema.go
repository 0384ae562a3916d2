package features

// Smooth applies recursive exponential smoothing:
// out[0] = values[0], out[i] = values[i]*alpha + out[i-1]*(1-alpha).
func Smooth(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// EMAAlpha returns the span based smoothing factor 2/(span+1).
func EMAAlpha(span int) float64 {
	if span < 1 {
		span = 1
	}
	return 2.0 / float64(span+1)
}

// EMA returns the exponential moving average of values for the given span.
// The recurrence is seeded with the first value, so every index is defined.
func EMA(values []float64, span int) []float64 {
	return Smooth(values, EMAAlpha(span))
}
