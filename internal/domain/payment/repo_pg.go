package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinora/clinora/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *repoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment (id, company_id, customer_id, amount, payment_type, notes, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		p.ID, p.CompanyID, p.CustomerID, p.Amount, p.PaymentType, p.Notes, p.PaidAt).
		Scan(&p.CreatedAt)
}

func (r *repoPG) ListByCustomer(ctx context.Context, companyID, customerID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payment WHERE company_id = $1 AND customer_id = $2`,
		companyID, customerID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, company_id, customer_id, amount, payment_type, notes, paid_at, created_at
		FROM payment
		WHERE company_id = $1 AND customer_id = $2
		ORDER BY paid_at DESC LIMIT $3 OFFSET $4`,
		companyID, customerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.CustomerID, &p.Amount, &p.PaymentType,
			&p.Notes, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByDateRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.company_id, p.customer_id, c.full_name, p.amount, p.payment_type,
			p.notes, p.paid_at, p.created_at
		FROM payment p JOIN customer c ON c.id = p.customer_id
		WHERE p.company_id = $1 AND p.paid_at >= $2 AND p.paid_at <= $3
		ORDER BY p.paid_at DESC`, companyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.CustomerID, &p.CustomerName, &p.Amount,
			&p.PaymentType, &p.Notes, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

func (r *repoPG) TotalPaid(ctx context.Context, companyID, customerID uuid.UUID) (float64, error) {
	var total float64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payment WHERE company_id = $1 AND customer_id = $2`,
		companyID, customerID).Scan(&total)
	return total, err
}
