package usecase

import (
	"context"
	"testing"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/session"
)

func authedCtx(clm session.Claims) context.Context {
	return session.SetAuth(context.Background(), clm)
}

func TestSelectDataSourceRemintsSession(t *testing.T) {
	fx := newFixture(t)

	fx.idp.seed(entity.User{
		ID:            "user-2",
		Email:         "pick@example.com",
		Name:          "Pick Source",
		Role:          entity.RoleManagement,
		Department:    "Operations",
		EmailVerified: true,
	}, "Sup3rSecret!")

	ctx := authedCtx(session.Claims{
		UserID: "user-2",
		Email:  "pick@example.com",
		Role:   entity.RoleManagement.String(),
	})

	out, err := fx.uc.SelectDataSource(ctx, SelectDataSourceInput{DataSource: "plant-west"})
	if err != nil {
		t.Fatalf("SelectDataSource returned error: %v", err)
	}
	if out.User.DataSource != "plant-west" {
		t.Fatalf("data source not stored, got %q", out.User.DataSource)
	}

	clm, err := fx.session.Verify(out.Token)
	if err != nil {
		t.Fatalf("reminted token should verify: %v", err)
	}
	if !clm.HasSelectedDataSource {
		t.Fatal("reminted claims must carry the data source selection")
	}
}

func TestSelectDataSourceRequiresAuthentication(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.uc.SelectDataSource(context.Background(), SelectDataSourceInput{DataSource: "plant-west"})
	if err == nil {
		t.Fatal("expected error without a session")
	}
	if got := statusOf(t, err); got != 401 {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestMeReturnsFreshUser(t *testing.T) {
	fx := newFixture(t)

	fx.idp.seed(entity.User{
		ID:            "user-3",
		Email:         "fresh@example.com",
		Name:          "Fresh Look",
		Role:          entity.RoleQC,
		Department:    "Quality",
		EmailVerified: true,
	}, "Sup3rSecret!")

	user, err := fx.uc.Me(authedCtx(session.Claims{UserID: "user-3", Email: "fresh@example.com"}))
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if user.Email != "fresh@example.com" || user.Role != entity.RoleQC {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestMeDeletedAccountReadsAsUnauthenticated(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.uc.Me(authedCtx(session.Claims{UserID: "user-gone", Email: "gone@example.com"}))
	if err == nil {
		t.Fatal("expected error for deleted account")
	}
	if got := statusOf(t, err); got != 401 {
		t.Fatalf("expected 401, got %d", got)
	}
}
