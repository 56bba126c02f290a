package device

import (
	"context"
	"errors"

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

const deviceCols = `id, company_id, name, capacity, created_at, updated_at`

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Capacity, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Device) error {
	d.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO device (id, company_id, name, capacity)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		d.ID, d.CompanyID, d.Name, d.Capacity).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, companyID, id uuid.UUID) (*Device, error) {
	return scanDevice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+deviceCols+` FROM device WHERE id = $1 AND company_id = $2`, id, companyID))
}

func (r *repoPG) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*Device, error) {
	d, err := scanDevice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+deviceCols+` FROM device WHERE company_id = $1 AND name = $2`, companyID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repoPG) Exists(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM device WHERE company_id = $1 AND name = $2)`,
		companyID, name).Scan(&ok)
	return ok, err
}

func (r *repoPG) List(ctx context.Context, companyID uuid.UUID) ([]*Device, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+deviceCols+` FROM device WHERE company_id = $1 ORDER BY name ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateCapacity(ctx context.Context, companyID, id uuid.UUID, capacity int) (*Device, error) {
	return scanDevice(r.conn(ctx).QueryRow(ctx, `
		UPDATE device SET capacity = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING `+deviceCols, id, companyID, capacity))
}

func (r *repoPG) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	q := r.conn(ctx)

	// Remember which appointments used this device before the FK cascade
	// removes the slot rows.
	rows, err := q.Query(ctx, `
		SELECT DISTINCT ad.appointment_id
		FROM appointment_device ad
		JOIN appointment a ON a.id = ad.appointment_id
		WHERE ad.device_id = $1 AND a.company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	var affected []uuid.UUID
	for rows.Next() {
		var apptID uuid.UUID
		if err := rows.Scan(&apptID); err != nil {
			rows.Close()
			return err
		}
		affected = append(affected, apptID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM device WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	// Appointments whose every slot referenced the deleted device are empty
	// shells now; remove them.
	if len(affected) > 0 {
		_, err = q.Exec(ctx, `
			DELETE FROM appointment a
			WHERE a.id = ANY($1) AND a.company_id = $2
			  AND NOT EXISTS (SELECT 1 FROM appointment_device ad WHERE ad.appointment_id = a.id)`,
			affected, companyID)
		if err != nil {
			return err
		}
	}
	return nil
}
