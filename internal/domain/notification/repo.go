package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the notice board.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// List returns notifications newest first.
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*Notification, error)
	// Delete removes one notification; pgx.ErrNoRows when nothing matched.
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	// Count counts notifications, optionally only those created after the
	// given cursor.
	Count(ctx context.Context, companyID uuid.UUID, after *time.Time) (int, error)
}
