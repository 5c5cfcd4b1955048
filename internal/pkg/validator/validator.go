package validator

// Validator validates a struct based on its field tags.
type Validator interface {
	// Validate returns nil when data passes validation, or an error describing
	// the failed fields.
	Validate(data any) error
}
