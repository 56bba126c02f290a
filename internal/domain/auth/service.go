package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	platformauth "github.com/clinora/clinora/internal/platform/auth"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// hashToken returns the hex SHA-256 of an opaque refresh token. Only this
// digest is ever stored, so a database leak does not leak sessions.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type Service struct {
	users      UserRepository
	tokens     TokenRepository
	issuer     *platformauth.TokenIssuer
	refreshTTL time.Duration
}

func NewService(users UserRepository, tokens TokenRepository, issuer *platformauth.TokenIssuer, refreshTTL time.Duration) *Service {
	return &Service{users: users, tokens: tokens, issuer: issuer, refreshTTL: refreshTTL}
}

// issueSession signs a fresh access token and rotates the refresh token. The
// previous refresh token, if any, stops working here.
func (s *Service) issueSession(ctx context.Context, u *User) (*Session, error) {
	access, err := s.issuer.Issue(u.ID.String(), u.CompanyID.String(), u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	err = s.tokens.Replace(ctx, &RefreshToken{
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		TokenHash: hashToken(refresh),
		ExpiresAt: time.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

// Login verifies the credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if !emailRx.MatchString(email) {
		return nil, apperr.Validation("invalid email format")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !platformauth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	return s.issueSession(ctx, u)
}

// Refresh exchanges a valid refresh token for a new token pair. Tokens of
// deactivated users are purged on sight.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("refresh token is required")
	}
	t, err := s.tokens.FindValid(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}
	u, err := s.users.GetByID(ctx, t.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		if err := s.tokens.DeleteForUser(ctx, u.ID); err != nil {
			return nil, err
		}
		return nil, apperr.Unauthorized("account is disabled")
	}
	session, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	// The session payload on refresh is tokens only.
	session.User = nil
	return session, nil
}

// Logout invalidates the caller's refresh token.
func (s *Service) Logout(ctx context.Context) error {
	userID, err := uuid.Parse(platformauth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.Unauthorized("")
	}
	return s.tokens.DeleteForUser(ctx, userID)
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context) (*User, error) {
	userID, err := uuid.Parse(platformauth.UserIDFromContext(ctx))
	if err != nil {
		return nil, apperr.Unauthorized("")
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Register creates a user account. The seed command and admin tooling use
// this; there is no self-service signup.
func (s *Service) Register(ctx context.Context, companyID uuid.UUID, email, password, firstName, lastName, role string) (*User, error) {
	if !emailRx.MatchString(email) {
		return nil, apperr.Validation("invalid email format")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if role == "" {
		role = RoleStaff
	}
	if role != RoleAdmin && role != RoleStaff {
		return nil, apperr.Validation("role must be admin or staff")
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}
	hash, err := platformauth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		CompanyID:    companyID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
