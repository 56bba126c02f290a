package auth

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Admin passes every role guard; staff covers the day-to-day
// booking surface.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User maps to the app_user table. CompanyName is joined in for the session
// payload.
type User struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	CompanyName  string    `json:"company_name,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken maps to the refresh_token table. Only the SHA-256 hash of the
// opaque token is stored; the plaintext exists client-side only.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Session is the login/refresh response payload.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}
