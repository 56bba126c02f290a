package customer

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the customer listing. IsActive defaults to active-only
// in the service layer.
type ListFilter struct {
	Search   string
	Gender   string
	IsActive bool
	Limit    int
	Offset   int
}

// Repository is the persistence contract for customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*Customer, error)
	// GetByNationalID returns nil, nil when no customer carries the number.
	GetByNationalID(ctx context.Context, companyID uuid.UUID, nationalID string) (*Customer, error)
	List(ctx context.Context, companyID uuid.UUID, f ListFilter) ([]*Customer, int, error)
	Update(ctx context.Context, c *Customer) error
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
	// Exists reports whether an active customer with the ID belongs to the
	// company.
	Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	Count(ctx context.Context, companyID uuid.UUID) (int, error)
	GenderStats(ctx context.Context, companyID uuid.UUID) (map[string]int, error)
	// AdjustDebt atomically adds delta (negative to pay down) to the
	// customer's balance and returns the updated row.
	AdjustDebt(ctx context.Context, companyID, id uuid.UUID, delta float64) (*Customer, error)
}
