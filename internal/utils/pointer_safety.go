package utils

func Ptr[T any](v T) *T {
	return &v
}

// ClampInt bounds v to [min, max], using def when v is not positive.
func ClampInt(v, def, min, max int) int {
	if v <= 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
