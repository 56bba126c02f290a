package payment

import (
	"time"

	"github.com/google/uuid"
)

// Payment types.
const (
	TypeCash        = "CASH"
	TypeInstallment = "INSTALLMENT"
)

// Payment is one row of the append-only payment ledger.
type Payment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CompanyID    uuid.UUID `db:"company_id" json:"-"`
	CustomerID   uuid.UUID `db:"customer_id" json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	Amount       float64   `db:"amount" json:"amount"`
	PaymentType  string    `db:"payment_type" json:"payment_type"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	PaidAt       time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Debt is the balance snapshot returned by the debt endpoint.
type Debt struct {
	CustomerID uuid.UUID `json:"customer_id"`
	TotalDebt  float64   `json:"total_debt"`
}
