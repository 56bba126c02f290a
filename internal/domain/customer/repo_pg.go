package customer

import (
	"context"
	"errors"
	"fmt"

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

const customerCols = `id, company_id, full_name, national_id, birth_date, gender,
	height_cm, phone, notes, is_active, total_debt, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.FullName, &c.NationalID, &c.BirthDate, &c.Gender,
		&c.HeightCm, &c.Phone, &c.Notes, &c.IsActive, &c.TotalDebt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Customer) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO customer (id, company_id, full_name, national_id, birth_date, gender,
			height_cm, phone, notes, total_debt)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING is_active, created_at, updated_at`,
		c.ID, c.CompanyID, c.FullName, c.NationalID, c.BirthDate, c.Gender,
		c.HeightCm, c.Phone, c.Notes, c.TotalDebt).
		Scan(&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, companyID, id uuid.UUID) (*Customer, error) {
	return scanCustomer(r.conn(ctx).QueryRow(ctx,
		`SELECT `+customerCols+` FROM customer WHERE id = $1 AND company_id = $2`, id, companyID))
}

func (r *repoPG) GetByNationalID(ctx context.Context, companyID uuid.UUID, nationalID string) (*Customer, error) {
	c, err := scanCustomer(r.conn(ctx).QueryRow(ctx,
		`SELECT `+customerCols+` FROM customer WHERE company_id = $1 AND national_id = $2`,
		companyID, nationalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) List(ctx context.Context, companyID uuid.UUID, f ListFilter) ([]*Customer, int, error) {
	where := ` WHERE company_id = $1 AND is_active = $2`
	args := []interface{}{companyID, f.IsActive}
	idx := 3

	if f.Search != "" {
		where += fmt.Sprintf(` AND (full_name ILIKE $%d OR national_id LIKE $%d OR phone LIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	if f.Gender != "" {
		where += fmt.Sprintf(` AND gender = $%d`, idx)
		args = append(args, f.Gender)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM customer`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerCols + ` FROM customer` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, c *Customer) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer
		SET full_name = $3, national_id = $4, birth_date = $5, gender = $6,
			height_cm = $7, phone = $8, notes = $9, total_debt = $10, updated_at = NOW()
		WHERE id = $1 AND company_id = $2`,
		c.ID, c.CompanyID, c.FullName, c.NationalID, c.BirthDate, c.Gender,
		c.HeightCm, c.Phone, c.Notes, c.TotalDebt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customer WHERE id = $1 AND company_id = $2 AND is_active = TRUE)`,
		id, companyID).Scan(&ok)
	return ok, err
}

func (r *repoPG) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM customer WHERE company_id = $1 AND is_active = TRUE`, companyID).Scan(&n)
	return n, err
}

func (r *repoPG) GenderStats(ctx context.Context, companyID uuid.UUID) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT COALESCE(gender, 'unknown'), COUNT(*)
		FROM customer WHERE company_id = $1 AND is_active = TRUE
		GROUP BY gender`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make(map[string]int)
	for rows.Next() {
		var gender string
		var count int
		if err := rows.Scan(&gender, &count); err != nil {
			return nil, err
		}
		stats[gender] = count
	}
	return stats, rows.Err()
}

func (r *repoPG) AdjustDebt(ctx context.Context, companyID, id uuid.UUID, delta float64) (*Customer, error) {
	return scanCustomer(r.conn(ctx).QueryRow(ctx, `
		UPDATE customer SET total_debt = total_debt + $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING `+customerCols, id, companyID, delta))
}
