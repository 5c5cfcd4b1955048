// Package uid provides ID generators behind small interfaces so callers can
// pick the shape they need (numeric, string) without binding to a library.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
