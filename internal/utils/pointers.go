// Package utils holds small generic helpers shared by the client packages.
package utils

// Ptr returns a pointer to a copy of v. Handy for the optional fields of update payloads.
func Ptr[T any](v T) *T {
	return &v
}

