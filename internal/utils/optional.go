// Package utils holds helpers for optional (pointer) fields in API payloads.
package utils

// Value dereferences v, giving the zero value for nil
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Optional points at v, or is nil when v is the zero value, so an empty
// form field is omitted from the payload.
func Optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
