package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the payment ledger.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	ListByCustomer(ctx context.Context, companyID, customerID uuid.UUID, limit, offset int) ([]*Payment, int, error)
	// ListByDateRange returns payments inside [start, end], newest first,
	// with customer names joined for reporting.
	ListByDateRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*Payment, error)
	TotalPaid(ctx context.Context, companyID, customerID uuid.UUID) (float64, error)
}
