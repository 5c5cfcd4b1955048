package usecase

import (
	"context"
	"strings"

	"github.com/eklabs/authgate/internal/dashboard/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/samber/lo"
)

type QueryInput struct {
	Query string `validate:"required,min=3,max=500"`
}

type cannedSource struct {
	source entity.Source
	roles  []string
}

// cannedSources is the stand-in document set served until the retrieval
// backend exists. Each source lists the roles allowed to see it.
var cannedSources = []cannedSource{
	{entity.Source{ID: "doc-1042", Title: "Batch Record B-2481", Type: "batch_record", Status: "approved", Department: "Production", TraceabilityID: "TRC-2481"}, []string{"qa", "qc", "production", "management", "admin"}},
	{entity.Source{ID: "doc-0977", Title: "Deviation Report DEV-119", Type: "deviation", Status: "open", Department: "Quality", TraceabilityID: "TRC-0119"}, []string{"qa", "qc", "regulatory", "management", "admin"}},
	{entity.Source{ID: "doc-0311", Title: "Annual Product Review 2025", Type: "report", Status: "final", Department: "Regulatory", TraceabilityID: "TRC-APR-25"}, []string{"regulatory", "management", "admin"}},
	{entity.Source{ID: "doc-1333", Title: "CAPA Tracker Q3", Type: "tracker", Status: "open", Department: "Quality", TraceabilityID: "TRC-CAPA-Q3"}, []string{"qa", "regulatory", "management", "admin"}},
	{entity.Source{ID: "doc-2206", Title: "Q3 Sales Pipeline", Type: "forecast", Status: "draft", Department: "Sales", TraceabilityID: "TRC-SLS-Q3"}, []string{"sales", "management", "admin"}},
	{entity.Source{ID: "doc-1580", Title: "Line 3 Utilization Log", Type: "log", Status: "current", Department: "Production", TraceabilityID: "TRC-L3"}, []string{"production", "management", "admin"}},
}

type cannedAnswer struct {
	summary     string
	confidence  entity.Confidence
	sensitivity entity.Sensitivity
}

var cannedAnswers = map[string]cannedAnswer{
	"qa":         {"Quality assurance snapshot for the selected data source.", entity.Confidence{Level: "high", Score: 0.92}, entity.Sensitivity{Regulated: true}},
	"qc":         {"Quality control snapshot for the selected data source.", entity.Confidence{Level: "high", Score: 0.9}, entity.Sensitivity{Regulated: true}},
	"production": {"Production floor snapshot for the selected data source.", entity.Confidence{Level: "medium", Score: 0.78}, entity.Sensitivity{}},
	"regulatory": {"Regulatory affairs snapshot for the selected data source.", entity.Confidence{Level: "high", Score: 0.95}, entity.Sensitivity{Confidential: true, Regulated: true}},
	"sales":      {"Sales performance snapshot for the selected data source.", entity.Confidence{Level: "medium", Score: 0.71}, entity.Sensitivity{Confidential: true}},
	"management": {"Cross-department snapshot for the selected data source.", entity.Confidence{Level: "high", Score: 0.88}, entity.Sensitivity{Confidential: true}},
	"admin":      {"Full snapshot for the selected data source.", entity.Confidence{Level: "high", Score: 0.88}, entity.Sensitivity{Confidential: true, Regulated: true}},
}

// fallbackAnswer covers roles that pass authorization but have no canned
// data of their own.
var fallbackAnswer = cannedAnswer{
	summary:    "No department-specific data is available for this account yet.",
	confidence: entity.Confidence{Level: "low", Score: 0.2},
}

// Query answers a dashboard question with role-scoped canned data.
func (s *Usecase) Query(ctx context.Context, in QueryInput) (*entity.QueryResult, error) {
	ctx, span := s.startSpan(ctx, "Query")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, "dashboard", "query")
	if err != nil {
		return nil, err
	}

	if !clm.HasSelectedDataSource {
		return nil, goerror.NewBusiness("Select a data source before querying the dashboard", goerror.CodeBadRequest)
	}

	in.Query = strings.TrimSpace(in.Query)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	answer, ok := cannedAnswers[clm.Role]
	if !ok {
		answer = fallbackAnswer
	}

	sources := lo.FilterMap(cannedSources, func(s cannedSource, _ int) (entity.Source, bool) {
		return s.source, lo.Contains(s.roles, clm.Role)
	})

	return &entity.QueryResult{
		Query:       in.Query,
		Role:        clm.Role,
		Summary:     answer.summary,
		Confidence:  answer.confidence,
		Sources:     sources,
		Sensitivity: answer.sensitivity,
	}, nil
}
