package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notification (id, company_id, text)
		VALUES ($1,$2,$3)
		RETURNING created_at, updated_at`,
		n.ID, n.CompanyID, n.Text).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *repoPG) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*Notification, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, company_id, text, created_at, updated_at
		FROM notification
		WHERE company_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.Text, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &n)
	}
	return items, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM notification WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Count(ctx context.Context, companyID uuid.UUID, after *time.Time) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM notification
		WHERE company_id = $1 AND ($2::timestamptz IS NULL OR created_at > $2)`,
		companyID, after).Scan(&count)
	return count, err
}
