package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/domain/customer"
	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/db"
	"github.com/clinora/clinora/internal/platform/tenant"
)

type Service struct {
	repo      Repository
	customers customer.Repository
	tx        db.TxRunner
}

func NewService(repo Repository, customers customer.Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, customers: customers, tx: tx}
}

// RecordInput carries a new ledger entry.
type RecordInput struct {
	CustomerID  uuid.UUID  `json:"customer_id"`
	Amount      float64    `json:"amount"`
	PaymentType string     `json:"payment_type"`
	Notes       *string    `json:"notes"`
	PaidAt      *time.Time `json:"paid_at"`
}

// Record inserts the payment and pays down the customer's debt in one
// transaction; a crash between the two can never leave the ledger and the
// balance disagreeing.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Payment, error) {
	if in.Amount <= 0 {
		return nil, apperr.Validation("payment amount must be positive")
	}
	ptype := in.PaymentType
	if ptype == "" {
		ptype = TypeCash
	}
	if ptype != TypeCash && ptype != TypeInstallment {
		return nil, apperr.Validation("payment type must be CASH or INSTALLMENT")
	}
	companyID := tenant.FromContext(ctx)

	var recorded *Payment
	err := s.tx(ctx, func(txCtx context.Context) error {
		cust, err := s.customers.GetByID(txCtx, companyID, in.CustomerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("customer")
		}
		if err != nil {
			return err
		}
		if in.Amount > cust.TotalDebt {
			return apperr.Validation("payment amount cannot exceed current debt")
		}

		p := &Payment{
			CompanyID:   companyID,
			CustomerID:  in.CustomerID,
			Amount:      in.Amount,
			PaymentType: ptype,
			Notes:       in.Notes,
		}
		if in.PaidAt != nil {
			p.PaidAt = *in.PaidAt
		}
		if err := s.repo.Create(txCtx, p); err != nil {
			return err
		}
		if _, err := s.customers.AdjustDebt(txCtx, companyID, in.CustomerID, -in.Amount); err != nil {
			return err
		}
		p.CustomerName = cust.FullName
		recorded = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// History returns the customer's payments, newest first.
func (s *Service) History(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListByCustomer(ctx, tenant.FromContext(ctx), customerID, limit, offset)
}

// Debt returns the customer's current balance.
func (s *Service) Debt(ctx context.Context, customerID uuid.UUID) (*Debt, error) {
	cust, err := s.customers.GetByID(ctx, tenant.FromContext(ctx), customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("customer")
	}
	if err != nil {
		return nil, err
	}
	return &Debt{CustomerID: customerID, TotalDebt: cust.TotalDebt}, nil
}
