package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/eklabs/authgate/internal/pkg/config"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/session"
	"github.com/eklabs/authgate/internal/pkg/validator"
)

const testModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

func newTestUsecase(t *testing.T) *Usecase {
	t.Helper()

	m, err := model.NewModelFromString(testModel)
	if err != nil {
		t.Fatalf("failed to build casbin model: %v", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("failed to build casbin enforcer: %v", err)
	}
	for _, role := range []string{"qa", "qc", "production", "regulatory", "sales", "management", "admin", "auditor"} {
		if _, err := enforcer.AddPolicy(role, "dashboard", "query"); err != nil {
			t.Fatalf("failed to add policy: %v", err)
		}
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(""))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	return New(Dependency{
		Validator:  v10,
		Config:     cfg,
		Instrument: instrument.NewNoop(),
		Enforcer:   enforcer,
	})
}

func authedCtx(role string, hasDataSource bool) context.Context {
	return session.SetAuth(context.Background(), session.Claims{
		UserID:                "user-1",
		Email:                 "user@example.com",
		Name:                  "User One",
		Role:                  role,
		Department:            "Quality",
		HasSelectedDataSource: hasDataSource,
	})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}

	return ge.StatusCode()
}

func TestQueryRequiresAuthentication(t *testing.T) {
	uc := newTestUsecase(t)

	_, err := uc.Query(context.Background(), QueryInput{Query: "how are yields"})
	if err == nil {
		t.Fatal("expected error without a session")
	}
	if got := statusOf(t, err); got != 401 {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestQueryRejectsUnauthorizedRole(t *testing.T) {
	uc := newTestUsecase(t)

	_, err := uc.Query(authedCtx("contractor", true), QueryInput{Query: "how are yields"})
	if err == nil {
		t.Fatal("expected error for role without policy")
	}
	if got := statusOf(t, err); got != 403 {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestQueryRequiresDataSource(t *testing.T) {
	uc := newTestUsecase(t)

	_, err := uc.Query(authedCtx("qa", false), QueryInput{Query: "how are yields"})
	if err == nil {
		t.Fatal("expected error without a selected data source")
	}
	if got := statusOf(t, err); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestQueryValidatesInput(t *testing.T) {
	uc := newTestUsecase(t)

	_, err := uc.Query(authedCtx("qa", true), QueryInput{Query: "  a  "})
	if err == nil {
		t.Fatal("expected validation error for a too-short query")
	}
	if got := statusOf(t, err); got != 422 {
		t.Fatalf("expected 422, got %d", got)
	}
}

func TestQueryScopesSourcesByRole(t *testing.T) {
	uc := newTestUsecase(t)

	tests := []struct {
		role        string
		wantSource  string
		denySource  string
		wantSummary string
	}{
		{"qa", "doc-1042", "doc-2206", "Quality assurance snapshot for the selected data source."},
		{"sales", "doc-2206", "doc-1042", "Sales performance snapshot for the selected data source."},
		{"regulatory", "doc-0311", "doc-1580", "Regulatory affairs snapshot for the selected data source."},
	}

	for _, tc := range tests {
		res, err := uc.Query(authedCtx(tc.role, true), QueryInput{Query: "status overview"})
		if err != nil {
			t.Fatalf("%s: Query returned error: %v", tc.role, err)
		}
		if res.Summary != tc.wantSummary {
			t.Fatalf("%s: unexpected summary %q", tc.role, res.Summary)
		}

		ids := make(map[string]bool, len(res.Sources))
		for _, s := range res.Sources {
			ids[s.ID] = true
		}
		if !ids[tc.wantSource] {
			t.Fatalf("%s: expected source %q in %v", tc.role, tc.wantSource, ids)
		}
		if ids[tc.denySource] {
			t.Fatalf("%s: source %q must not be visible", tc.role, tc.denySource)
		}
	}
}

func TestQueryAdminSeesEverything(t *testing.T) {
	uc := newTestUsecase(t)

	res, err := uc.Query(authedCtx("admin", true), QueryInput{Query: "full overview"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(res.Sources) != len(cannedSources) {
		t.Fatalf("admin should see all %d sources, got %d", len(cannedSources), len(res.Sources))
	}
	if res.Role != "admin" {
		t.Fatalf("unexpected role %q", res.Role)
	}
	if !res.Sensitivity.Confidential || !res.Sensitivity.Regulated {
		t.Fatalf("unexpected sensitivity %+v", res.Sensitivity)
	}
}

func TestQueryUnknownRoleGetsFallback(t *testing.T) {
	uc := newTestUsecase(t)

	res, err := uc.Query(authedCtx("auditor", true), QueryInput{Query: "status overview"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if res.Summary != fallbackAnswer.summary {
		t.Fatalf("expected fallback summary, got %q", res.Summary)
	}
	if res.Confidence.Level != "low" {
		t.Fatalf("fallback should be low confidence, got %+v", res.Confidence)
	}
	if len(res.Sources) != 0 {
		t.Fatalf("fallback should list no sources, got %v", res.Sources)
	}
}
