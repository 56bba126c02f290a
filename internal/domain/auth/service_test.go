package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	platformauth "github.com/clinora/clinora/internal/platform/auth"
)

type mockUsers struct {
	byID map[uuid.UUID]*User
}

func (m *mockUsers) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

type mockTokens struct {
	byUser map[uuid.UUID]*RefreshToken
}

func (m *mockTokens) Replace(_ context.Context, t *RefreshToken) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	cp := *t
	m.byUser[t.UserID] = &cp
	return nil
}

func (m *mockTokens) FindValid(_ context.Context, tokenHash string) (*RefreshToken, error) {
	for _, t := range m.byUser {
		if t.TokenHash == tokenHash && t.ExpiresAt.After(time.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTokens) DeleteForUser(_ context.Context, userID uuid.UUID) error {
	delete(m.byUser, userID)
	return nil
}

type fixture struct {
	users  *mockUsers
	tokens *mockTokens
	svc    *Service
}

func newFixture() *fixture {
	f := &fixture{
		users:  &mockUsers{byID: make(map[uuid.UUID]*User)},
		tokens: &mockTokens{byUser: make(map[uuid.UUID]*RefreshToken)},
	}
	issuer := platformauth.NewTokenIssuer("test-secret", 15*time.Minute)
	f.svc = NewService(f.users, f.tokens, issuer, 30*24*time.Hour)
	return f
}

func (f *fixture) addUser(t *testing.T, email, password, role string, active bool) *User {
	t.Helper()
	hash, err := platformauth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &User{
		CompanyID:    uuid.New(),
		CompanyName:  "Test Clinic",
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     active,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestLogin_Success(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "admin@clinic.test", "s3cret-pass", RoleAdmin, true)

	session, err := f.svc.Login(context.Background(), "admin@clinic.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if session.User == nil || session.User.Email != u.Email {
		t.Errorf("expected user payload, got %+v", session.User)
	}

	stored := f.tokens.byUser[u.ID]
	if stored == nil {
		t.Fatal("expected refresh token to be stored")
	}
	if stored.TokenHash == session.RefreshToken {
		t.Error("refresh token must be stored hashed, not in plaintext")
	}
	if stored.TokenHash != hashToken(session.RefreshToken) {
		t.Error("stored hash does not match the issued token")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture()
	f.addUser(t, "admin@clinic.test", "s3cret-pass", RoleAdmin, true)

	for _, tc := range []struct{ email, password string }{
		{"admin@clinic.test", "wrong"},
		{"nobody@clinic.test", "s3cret-pass"},
	} {
		_, err := f.svc.Login(context.Background(), tc.email, tc.password)
		appErr := apperr.As(err)
		if appErr == nil || appErr.Code != "UNAUTHORIZED" {
			t.Errorf("login %s: expected unauthorized, got %v", tc.email, err)
		}
	}
}

func TestLogin_RejectsMalformedEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Login(context.Background(), "not-an-email", "whatever")
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := newFixture()
	f.addUser(t, "gone@clinic.test", "s3cret-pass", RoleStaff, false)

	_, err := f.svc.Login(context.Background(), "gone@clinic.test", "s3cret-pass")
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "UNAUTHORIZED" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newFixture()
	f.addUser(t, "admin@clinic.test", "s3cret-pass", RoleAdmin, true)

	session, err := f.svc.Login(context.Background(), "admin@clinic.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := f.svc.Refresh(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == session.RefreshToken {
		t.Error("expected a new refresh token")
	}
	if next.User != nil {
		t.Error("refresh response should not carry the user payload")
	}

	// The old token died with the rotation.
	if _, err := f.svc.Refresh(context.Background(), session.RefreshToken); err == nil {
		t.Error("expected the previous refresh token to be invalid")
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Refresh(context.Background(), uuid.NewString())
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "UNAUTHORIZED" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefresh_DeactivatedUserPurgesTokens(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "admin@clinic.test", "s3cret-pass", RoleAdmin, true)

	session, err := f.svc.Login(context.Background(), "admin@clinic.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	f.users.byID[u.ID].IsActive = false

	_, err = f.svc.Refresh(context.Background(), session.RefreshToken)
	appErr := apperr.As(err)
	if appErr == nil || appErr.Code != "UNAUTHORIZED" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, ok := f.tokens.byUser[u.ID]; ok {
		t.Error("expected the deactivated user's tokens to be purged")
	}
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "admin@clinic.test", "s3cret-pass", RoleAdmin, true)

	session, err := f.svc.Login(context.Background(), "admin@clinic.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ctx := context.WithValue(context.Background(), platformauth.UserIDKey, u.ID.String())
	if err := f.svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), session.RefreshToken); err == nil {
		t.Error("expected refresh to fail after logout")
	}
}

func TestMe_ReturnsProfile(t *testing.T) {
	f := newFixture()
	u := f.addUser(t, "staff@clinic.test", "s3cret-pass", RoleStaff, true)

	ctx := context.WithValue(context.Background(), platformauth.UserIDKey, u.ID.String())
	got, err := f.svc.Me(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != u.Email || got.Role != RoleStaff {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()
	companyID := uuid.New()
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, companyID, "bad-email", "longenough", "A", "B", RoleStaff); apperr.As(err) == nil {
		t.Error("expected validation error for malformed email")
	}
	if _, err := f.svc.Register(ctx, companyID, "a@b.test", "short", "A", "B", RoleStaff); apperr.As(err) == nil {
		t.Error("expected validation error for short password")
	}
	if _, err := f.svc.Register(ctx, companyID, "a@b.test", "longenough", "A", "B", "owner"); apperr.As(err) == nil {
		t.Error("expected validation error for unknown role")
	}

	u, err := f.svc.Register(ctx, companyID, "a@b.test", "longenough", "A", "B", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != RoleStaff {
		t.Errorf("expected default role staff, got %s", u.Role)
	}

	_, err = f.svc.Register(ctx, companyID, "A@B.test", "longenough", "A", "B", RoleStaff)
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}
}
