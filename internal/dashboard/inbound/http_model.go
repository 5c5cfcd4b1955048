package inbound

import "github.com/eklabs/authgate/internal/dashboard/entity"

type QueryRequest struct {
	Query string `json:"query"`
}

type ConfidenceResponse struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

type SourceResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Department     string `json:"department"`
	TraceabilityID string `json:"traceability_id"`
}

type SensitivityResponse struct {
	Confidential bool `json:"confidential"`
	Regulated    bool `json:"regulated"`
}

type QueryResponse struct {
	Query       string              `json:"query"`
	Role        string              `json:"role"`
	Summary     string              `json:"summary"`
	Confidence  ConfidenceResponse  `json:"confidence"`
	Sources     []SourceResponse    `json:"sources"`
	Sensitivity SensitivityResponse `json:"sensitivity"`
}

func newQueryResponse(r *entity.QueryResult) QueryResponse {
	sources := make([]SourceResponse, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, SourceResponse{
			ID:             s.ID,
			Title:          s.Title,
			Type:           s.Type,
			Status:         s.Status,
			Department:     s.Department,
			TraceabilityID: s.TraceabilityID,
		})
	}

	return QueryResponse{
		Query:   r.Query,
		Role:    r.Role,
		Summary: r.Summary,
		Confidence: ConfidenceResponse{
			Level: r.Confidence.Level,
			Score: r.Confidence.Score,
		},
		Sources: sources,
		Sensitivity: SensitivityResponse{
			Confidential: r.Sensitivity.Confidential,
			Regulated:    r.Sensitivity.Regulated,
		},
	}
}
