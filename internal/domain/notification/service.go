package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/tenant"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create posts a notice to the company board.
func (s *Service) Create(ctx context.Context, text string) (*Notification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("notification text is required")
	}
	n := &Notification{
		CompanyID: tenant.FromContext(ctx),
		Text:      text,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the board newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Notification, error) {
	return s.repo.List(ctx, tenant.FromContext(ctx), limit, offset)
}

// Delete removes a notice.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, tenant.FromContext(ctx), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("notification")
	}
	return err
}

// UnreadCount counts notices created after the client's cursor. A nil
// cursor counts the whole board.
func (s *Service) UnreadCount(ctx context.Context, after *time.Time) (int, error) {
	return s.repo.Count(ctx, tenant.FromContext(ctx), after)
}
