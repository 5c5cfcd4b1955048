package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/config"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/goroutine"
	"github.com/eklabs/authgate/internal/pkg/hash"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/otp"
	"github.com/eklabs/authgate/internal/pkg/ratelimit"
	"github.com/eklabs/authgate/internal/pkg/session"
	"github.com/eklabs/authgate/internal/pkg/uid"
	"github.com/eklabs/authgate/internal/pkg/validator"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

type seqID struct {
	n int64
}

func (s *seqID) Generate() int64 {
	return atomic.AddInt64(&s.n, 1)
}

type fakeIdP struct {
	mu        sync.Mutex
	byEmail   map[string]*entity.User
	passwords map[string]string
	nextID    int
}

func newFakeIdP() *fakeIdP {
	return &fakeIdP{
		byEmail:   make(map[string]*entity.User),
		passwords: make(map[string]string),
	}
}

func (f *fakeIdP) seed(u entity.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := u
	f.byEmail[u.Email] = &cp
	f.passwords[u.Email] = password
}

func (f *fakeIdP) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

func (f *fakeIdP) GetUserByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (f *fakeIdP) CreateUser(_ context.Context, in entity.NewUser) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byEmail[in.Email]; ok {
		return nil, goerror.ErrConflict
	}

	f.nextID++
	u := &entity.User{
		ID:         "user-" + strconv.Itoa(f.nextID),
		Email:      in.Email,
		Name:       in.Name,
		Role:       in.Role,
		Department: in.Department,
	}
	f.byEmail[in.Email] = u
	f.passwords[in.Email] = in.Password

	cp := *u
	return &cp, nil
}

func (f *fakeIdP) VerifyPassword(_ context.Context, email, password string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, goerror.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

func (f *fakeIdP) MarkEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			u.EmailVerified = true
			return nil
		}
	}

	return goerror.ErrNotFound
}

func (f *fakeIdP) UpdatePassword(_ context.Context, id, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			f.passwords[u.Email] = newPassword
			return nil
		}
	}

	return goerror.ErrNotFound
}

func (f *fakeIdP) SetDataSource(_ context.Context, id, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			u.DataSource = source
			return nil
		}
	}

	return goerror.ErrNotFound
}

func (f *fakeIdP) password(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.passwords[email]
}

type fakeAuditDB struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (f *fakeAuditDB) RecordAuditEvent(_ context.Context, ev entity.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, ev)
	return nil
}

func (f *fakeAuditDB) actions() []entity.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()

	actions := make([]entity.AuditAction, 0, len(f.events))
	for _, ev := range f.events {
		actions = append(actions, ev.Action)
	}
	return actions
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []OTPIssuedEvent
}

func (f *fakeMessaging) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, msg)
	return nil
}

func (f *fakeMessaging) published() []OTPIssuedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]OTPIssuedEvent(nil), f.events...)
}

type fixture struct {
	uc      *Usecase
	idp     *fakeIdP
	auditDB *fakeAuditDB
	mq      *fakeMessaging
	codes   *otp.Manager
	session session.Session
	routine *goroutine.Manager
}

// drain waits for background publishes to land.
func (fx *fixture) drain(t *testing.T) {
	t.Helper()

	if err := fx.routine.Wait(); err != nil {
		t.Fatalf("background goroutines returned error: %v", err)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := &testClock{now: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)}

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  auth:
    otp_request_limit: 3
    otp_request_window_minutes: 15
`))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	sess, err := session.NewHS512(session.Config{
		Secret:    []byte(testSessionSecret),
		Issuer:    "authgate-test",
		Audiences: []string{"authgate"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("failed to build session: %v", err)
	}

	codes := otp.NewManager(otp.Config{
		Store:  otp.NewMemoryStore(),
		Clock:  clk,
		Hasher: hash.NewHMACSHA256("unit-test-secret"),
	})

	idp := newFakeIdP()
	auditDB := &fakeAuditDB{}
	mq := &fakeMessaging{}
	routine := goroutine.NewManager(16)

	uc := New(Dependency{
		IdentityProvider: idp,
		RepoDB:           auditDB,
		RepoMessaging:    mq,
		Codes:            codes,
		Limiter:          ratelimit.NewMemoryLimiter(),
		Validator:        v10,
		Config:           cfg,
		UID:              &seqID{},
		Clock:            clk,
		Session:          sess,
		Instrument:       instrument.NewNoop(),
		Goroutine:        routine,
	})

	return &fixture{
		uc:      uc,
		idp:     idp,
		auditDB: auditDB,
		mq:      mq,
		codes:   codes,
		session: sess,
		routine: routine,
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}

	return ge.StatusCode()
}

func validSignup() SignupInput {
	return SignupInput{
		Email:      "Jamie.Doe@Example.com",
		Password:   "Sup3rSecret!",
		Name:       "Jamie Doe",
		Role:       "qa",
		Department: "Quality",
		IP:         "203.0.113.7",
	}
}

func TestSignupCreatesUnverifiedUserAndPublishesCode(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out, err := fx.uc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if out.Email != "jamie.doe@example.com" {
		t.Fatalf("expected normalized email, got %q", out.Email)
	}

	user, err := fx.idp.GetUserByEmail(ctx, out.Email)
	if err != nil {
		t.Fatalf("user should exist at provider: %v", err)
	}
	if user.EmailVerified {
		t.Fatal("new account must start unverified")
	}

	fx.drain(t)
	events := fx.mq.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if events[0].Purpose != otp.PurposeSignupVerification.String() {
		t.Fatalf("unexpected purpose %q", events[0].Purpose)
	}
	if len(events[0].Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", events[0].Code)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if _, err := fx.uc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("first signup returned error: %v", err)
	}

	_, err := fx.uc.Signup(ctx, validSignup())
	if err == nil {
		t.Fatal("expected error on duplicate signup")
	}
	if got := statusOf(t, err); got != 409 {
		t.Fatalf("expected 409, got %d", got)
	}
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	fx := newFixture(t)

	in := validSignup()
	in.Role = "intern"

	_, err := fx.uc.Signup(context.Background(), in)
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if got := statusOf(t, err); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestVerifyOTPMarksVerifiedAndMintsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out, err := fx.uc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	fx.drain(t)
	code := fx.mq.published()[0].Code

	res, err := fx.uc.VerifyOTP(ctx, VerifyOTPInput{Email: out.Email, Code: code})
	if err != nil {
		t.Fatalf("VerifyOTP returned error: %v", err)
	}
	if !res.User.EmailVerified {
		t.Fatal("user should be verified")
	}

	clm, err := fx.session.Verify(res.Token)
	if err != nil {
		t.Fatalf("minted token should verify: %v", err)
	}
	if clm.Email != out.Email {
		t.Fatalf("claims email mismatch: %q", clm.Email)
	}

	// The code is consumed; replaying it must fail.
	_, err = fx.uc.VerifyOTP(ctx, VerifyOTPInput{Email: out.Email, Code: code})
	if err == nil {
		t.Fatal("expected error on code replay")
	}
	if got := statusOf(t, err); got != 400 {
		t.Fatalf("expected 400 on replay, got %d", got)
	}
}

func TestVerifyOTPUnknownEmailReadsAsBadCode(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		Email: "nobody@example.com",
		Code:  "123456",
	})
	if err == nil {
		t.Fatal("expected error for unknown email")
	}

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T", err)
	}
	if ge.StatusCode() != 400 || ge.Msg() != "Invalid or expired verification code" {
		t.Fatalf("unknown email must read as a bad code, got status=%d msg=%q", ge.StatusCode(), ge.Msg())
	}
}

func TestSigninSuccess(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:            "user-7",
		Email:         "pat@example.com",
		Name:          "Pat Lee",
		Role:          entity.RoleSales,
		Department:    "Sales",
		EmailVerified: true,
	}, "Sup3rSecret!")

	out, err := fx.uc.Signin(ctx, SigninInput{Email: "pat@example.com", Password: "Sup3rSecret!"})
	if err != nil {
		t.Fatalf("Signin returned error: %v", err)
	}

	clm, err := fx.session.Verify(out.Token)
	if err != nil {
		t.Fatalf("session token should verify: %v", err)
	}
	if clm.Role != entity.RoleSales.String() {
		t.Fatalf("claims role mismatch: %q", clm.Role)
	}
}

func TestSigninWrongPasswordAndUnknownEmailReadTheSame(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:            "user-7",
		Email:         "pat@example.com",
		Name:          "Pat Lee",
		Role:          entity.RoleSales,
		Department:    "Sales",
		EmailVerified: true,
	}, "Sup3rSecret!")

	for _, in := range []SigninInput{
		{Email: "pat@example.com", Password: "WrongPass1!"},
		{Email: "ghost@example.com", Password: "WrongPass1!"},
	} {
		_, err := fx.uc.Signin(ctx, in)
		if err == nil {
			t.Fatalf("expected error for %q", in.Email)
		}

		var ge *goerror.Error
		if !errors.As(err, &ge) {
			t.Fatalf("expected *goerror.Error, got %T", err)
		}
		if ge.StatusCode() != 401 || ge.Msg() != "Invalid email or password" {
			t.Fatalf("got status=%d msg=%q for %q", ge.StatusCode(), ge.Msg(), in.Email)
		}
	}
}

func TestSigninUnverifiedReissuesCode(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:         "user-9",
		Email:      "new@example.com",
		Name:       "New Person",
		Role:       entity.RoleQC,
		Department: "Quality",
	}, "Sup3rSecret!")

	_, err := fx.uc.Signin(ctx, SigninInput{Email: "new@example.com", Password: "Sup3rSecret!"})
	if err == nil {
		t.Fatal("expected error for unverified account")
	}
	if got := statusOf(t, err); got != 403 {
		t.Fatalf("expected 403, got %d", got)
	}

	fx.drain(t)
	events := fx.mq.published()
	if len(events) != 1 || events[0].Purpose != otp.PurposeSignupVerification.String() {
		t.Fatalf("expected one reissued signup code, got %+v", events)
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	fx := newFixture(t)

	if err := fx.uc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}

	fx.drain(t)
	if got := len(fx.mq.published()); got != 0 {
		t.Fatalf("no event should be published for unknown email, got %d", got)
	}
}

func TestForgotPasswordRateLimit(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// The configured window allows 3 requests per address.
	for i := range 3 {
		if err := fx.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ghost@example.com"}); err != nil {
			t.Fatalf("request %d should pass: %v", i+1, err)
		}
	}

	err := fx.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ghost@example.com"})
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if got := statusOf(t, err); got != 429 {
		t.Fatalf("expected 429, got %d", got)
	}

	// Another address is unaffected.
	if err := fx.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "other@example.com"}); err != nil {
		t.Fatalf("other address should pass: %v", err)
	}
}

func TestResendOTPPrefersLiveSignupCode(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:         "user-3",
		Email:      "both@example.com",
		Name:       "Both Codes",
		Role:       entity.RoleQA,
		Department: "Quality",
	}, "Sup3rSecret!")

	if _, err := fx.codes.Issue(ctx, "both@example.com", otp.PurposeSignupVerification); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := fx.codes.Issue(ctx, "both@example.com", otp.PurposePasswordReset); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if err := fx.uc.ResendOTP(ctx, ResendOTPInput{Email: "both@example.com"}); err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}

	fx.drain(t)
	events := fx.mq.published()
	if len(events) != 1 || events[0].Purpose != otp.PurposeSignupVerification.String() {
		t.Fatalf("signup purpose should win, got %+v", events)
	}
}

func TestResendOTPUnverifiedWithoutLiveCodeGetsSignupCode(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:         "user-4",
		Email:      "stale@example.com",
		Name:       "Stale Signup",
		Role:       entity.RoleQA,
		Department: "Quality",
	}, "Sup3rSecret!")

	if err := fx.uc.ResendOTP(ctx, ResendOTPInput{Email: "stale@example.com"}); err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}

	fx.drain(t)
	events := fx.mq.published()
	if len(events) != 1 || events[0].Purpose != otp.PurposeSignupVerification.String() {
		t.Fatalf("expected signup code for unverified account, got %+v", events)
	}
}

func TestResendOTPNothingPending(t *testing.T) {
	fx := newFixture(t)

	fx.idp.seed(entity.User{
		ID:            "user-5",
		Email:         "done@example.com",
		Name:          "All Done",
		Role:          entity.RoleQA,
		Department:    "Quality",
		EmailVerified: true,
	}, "Sup3rSecret!")

	err := fx.uc.ResendOTP(context.Background(), ResendOTPInput{Email: "done@example.com"})
	if err == nil {
		t.Fatal("expected error when nothing is pending")
	}
	if got := statusOf(t, err); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:            "user-6",
		Email:         "reset@example.com",
		Name:          "Reset Me",
		Role:          entity.RoleQA,
		Department:    "Quality",
		EmailVerified: true,
	}, "OldSecret1!")

	if err := fx.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "reset@example.com"}); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	fx.drain(t)
	code := fx.mq.published()[0].Code

	// Pre-check does not consume the code.
	if err := fx.uc.VerifyResetOTP(ctx, VerifyResetOTPInput{Email: "reset@example.com", Code: code}); err != nil {
		t.Fatalf("VerifyResetOTP returned error: %v", err)
	}

	err := fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Email:       "reset@example.com",
		Code:        code,
		NewPassword: "NewSecret2!",
	})
	if err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if got := fx.idp.password("reset@example.com"); got != "NewSecret2!" {
		t.Fatalf("password not updated, got %q", got)
	}

	// The code is consumed by the reset.
	err = fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Email:       "reset@example.com",
		Code:        code,
		NewPassword: "NewSecret3!",
	})
	if err == nil {
		t.Fatal("expected error on code replay")
	}
	if got := statusOf(t, err); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestResetPasswordWrongCodeKeepsPassword(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.idp.seed(entity.User{
		ID:            "user-8",
		Email:         "keep@example.com",
		Name:          "Keep Password",
		Role:          entity.RoleQA,
		Department:    "Quality",
		EmailVerified: true,
	}, "OldSecret1!")

	if err := fx.uc.ForgotPassword(ctx, ForgotPasswordInput{Email: "keep@example.com"}); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	fx.drain(t)
	code := fx.mq.published()[0].Code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err := fx.uc.ResetPassword(ctx, ResetPasswordInput{
		Email:       "keep@example.com",
		Code:        wrong,
		NewPassword: "NewSecret2!",
	})
	if err == nil {
		t.Fatal("expected error for wrong code")
	}
	if got := statusOf(t, err); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}

	if got := fx.idp.password("keep@example.com"); got != "OldSecret1!" {
		t.Fatalf("password must be unchanged, got %q", got)
	}
}

func TestAuditTrailForSignupFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out, err := fx.uc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	fx.drain(t)
	code := fx.mq.published()[0].Code

	if _, err := fx.uc.VerifyOTP(ctx, VerifyOTPInput{Email: out.Email, Code: code}); err != nil {
		t.Fatalf("VerifyOTP returned error: %v", err)
	}

	actions := fx.auditDB.actions()
	want := []entity.AuditAction{entity.AuditSignup, entity.AuditEmailVerified}
	if len(actions) != len(want) {
		t.Fatalf("expected %d audit events, got %d (%v)", len(want), len(actions), actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("audit event %d: want %q, got %q", i, want[i], actions[i])
		}
	}
}
