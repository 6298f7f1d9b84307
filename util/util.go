package util

// Keys collects a map's keys in iteration order.
func Keys[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Ptr makes a pointer to v, handy for optional struct fields.
func Ptr[T any](v T) *T { return &v }

// Coalesce picks the first non-zero value. All-zero input yields the
// zero value.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
