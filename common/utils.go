package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// CeilDiv divides n by d rounding towards positive infinity. It is used to turn pixel extents into
// workgroup counts. A non-positive divisor yields 0.
//
// Parameters:
//   - n: the dividend
//   - d: the divisor
//
// Returns:
//   - int: ceil(n / d)
func CeilDiv(n, d int) int {
	if d <= 0 {
		return 0
	}
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
