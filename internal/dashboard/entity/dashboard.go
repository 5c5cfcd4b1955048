package entity

// Confidence grades how much trust to place in an answer.
type Confidence struct {
	Level string
	Score float64
}

// Source is one document backing a dashboard answer.
type Source struct {
	ID             string
	Title          string
	Type           string
	Status         string
	Department     string
	TraceabilityID string
}

// Sensitivity flags data-handling constraints on an answer.
type Sensitivity struct {
	Confidential bool
	Regulated    bool
}

// QueryResult is the answer to a dashboard question. Content is a static
// per-role lookup until the retrieval backend is wired in.
type QueryResult struct {
	Query       string
	Role        string
	Summary     string
	Confidence  Confidence
	Sources     []Source
	Sensitivity Sensitivity
}
