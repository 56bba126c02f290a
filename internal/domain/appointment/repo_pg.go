package appointment

import (
	"context"
	"errors"
	"fmt"
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

const apptCols = `a.id, a.company_id, a.customer_id, c.full_name, c.phone,
	a.start_time, a.end_time, a.status, a.notes, a.created_at, a.updated_at`

const apptFrom = ` FROM appointment a JOIN customer c ON c.id = a.customer_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.CompanyID, &a.CustomerID, &a.CustomerName, &a.CustomerPhone,
		&a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

// overlapCond is the slot-overlap predicate over half-open intervals,
// parameterized on the candidate window ($s = start, $e = end). The three
// OR'd cases match the Overlaps predicate exactly.
func overlapCond(col string, startIdx, endIdx int) string {
	return fmt.Sprintf(`(
		(%[1]s.start_time <= $%[2]d AND %[1]s.end_time > $%[2]d) OR
		(%[1]s.start_time < $%[3]d AND %[1]s.end_time >= $%[3]d) OR
		(%[1]s.start_time >= $%[2]d AND %[1]s.end_time <= $%[3]d)
	)`, col, startIdx, endIdx)
}

func (r *repoPG) GetByID(ctx context.Context, companyID, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+apptFrom+` WHERE a.id = $1 AND a.company_id = $2`, id, companyID))
	if err != nil {
		return nil, err
	}
	if err := r.loadSlots(ctx, []*Appointment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) List(ctx context.Context, companyID uuid.UUID, f ListFilter) ([]*Appointment, int, error) {
	where := ` WHERE a.company_id = $1`
	args := []interface{}{companyID}
	idx := 2

	if f.StartDate != nil && f.EndDate != nil {
		where += fmt.Sprintf(` AND a.start_time >= $%d AND a.end_time <= $%d`, idx, idx+1)
		args = append(args, *f.StartDate, *f.EndDate)
		idx += 2
	}
	if f.CustomerID != nil {
		where += fmt.Sprintf(` AND a.customer_id = $%d`, idx)
		args = append(args, *f.CustomerID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(` AND a.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.DeviceName != "" {
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM appointment_device ad WHERE ad.appointment_id = a.id AND ad.device_name = $%d)`, idx)
		args = append(args, f.DeviceName)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+apptFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + apptFrom + where +
		fmt.Sprintf(` ORDER BY a.start_time ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, f.Limit, f.Offset)

	items, err := r.queryAppointments(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) FindByDateRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+apptCols+apptFrom+`
		WHERE a.company_id = $1 AND a.start_time >= $2 AND a.end_time <= $3
		  AND a.status <> 'cancelled'
		ORDER BY a.start_time ASC`, companyID, start, end)
}

func (r *repoPG) FindUpcoming(ctx context.Context, companyID uuid.UUID, limit int) ([]*Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+apptCols+apptFrom+`
		WHERE a.company_id = $1 AND a.start_time >= NOW() AND a.status = 'scheduled'
		ORDER BY a.start_time ASC LIMIT $2`, companyID, limit)
}

func (r *repoPG) CountByRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment a
		WHERE a.company_id = $1 AND a.start_time >= $2 AND a.start_time < $3
		  AND a.status <> 'cancelled'`, companyID, start, end).Scan(&n)
	return n, err
}

func (r *repoPG) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadSlots(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repoPG) loadSlots(ctx context.Context, appts []*Appointment) error {
	if len(appts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(appts))
	byID := make(map[uuid.UUID]*Appointment, len(appts))
	for i, a := range appts {
		ids[i] = a.ID
		byID[a.ID] = a
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, appointment_id, device_id, device_name, start_time, end_time, sequence
		FROM appointment_device
		WHERE appointment_id = ANY($1)
		ORDER BY sequence ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s DeviceSlot
		if err := rows.Scan(&s.ID, &s.AppointmentID, &s.DeviceID, &s.DeviceName,
			&s.StartTime, &s.EndTime, &s.Sequence); err != nil {
			return err
		}
		if a, ok := byID[s.AppointmentID]; ok {
			a.Devices = append(a.Devices, s)
		}
	}
	return rows.Err()
}

func (r *repoPG) CheckDeviceConflicts(ctx context.Context, companyID uuid.UUID, slots []SlotRequest, excludeAppointmentID *uuid.UUID) ([]Conflict, error) {
	q := r.conn(ctx)
	var conflicts []Conflict

	for _, slot := range slots {
		var capacity int
		err := q.QueryRow(ctx,
			`SELECT capacity FROM device WHERE company_id = $1 AND name = $2`,
			companyID, slot.DeviceName).Scan(&capacity)
		if errors.Is(err, pgx.ErrNoRows) {
			conflicts = append(conflicts, Conflict{
				DeviceName: slot.DeviceName,
				Reason:     ReasonDeviceNotFound,
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		cond := overlapCond("ad", 4, 5)
		var bookings int
		err = q.QueryRow(ctx, `
			SELECT COUNT(*)
			FROM appointment_device ad
			JOIN appointment a ON a.id = ad.appointment_id
			WHERE ad.device_name = $2 AND a.company_id = $1
			  AND a.status <> 'cancelled'
			  AND ($3::uuid IS NULL OR a.id <> $3)
			  AND `+cond,
			companyID, slot.DeviceName, excludeAppointmentID, slot.StartTime, slot.EndTime).Scan(&bookings)
		if err != nil {
			return nil, err
		}

		if bookings < capacity {
			continue
		}

		// Capacity exhausted; fetch one colliding booking as the example.
		c := Conflict{
			DeviceName:      slot.DeviceName,
			Reason:          ReasonCapacityExceeded,
			DeviceCapacity:  &capacity,
			CurrentBookings: &bookings,
		}
		var apptID uuid.UUID
		var customerName string
		var slotStart, slotEnd time.Time
		err = q.QueryRow(ctx, `
			SELECT a.id, c.full_name, ad.start_time, ad.end_time
			FROM appointment_device ad
			JOIN appointment a ON a.id = ad.appointment_id
			JOIN customer c ON c.id = a.customer_id
			WHERE ad.device_name = $2 AND a.company_id = $1
			  AND a.status <> 'cancelled'
			  AND ($3::uuid IS NULL OR a.id <> $3)
			  AND `+cond+`
			ORDER BY ad.start_time ASC LIMIT 1`,
			companyID, slot.DeviceName, excludeAppointmentID, slot.StartTime, slot.EndTime).
			Scan(&apptID, &customerName, &slotStart, &slotEnd)
		if err == nil {
			c.ConflictingAppointmentID = &apptID
			c.CustomerName = customerName
			c.StartTime = &slotStart
			c.EndTime = &slotEnd
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, nil
}

func (r *repoPG) CheckCustomerTimeConflict(ctx context.Context, companyID, customerID uuid.UUID, start, end time.Time, excludeAppointmentID *uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+apptCols+apptFrom+`
		WHERE a.company_id = $1 AND a.customer_id = $2
		  AND a.status <> 'cancelled'
		  AND ($3::uuid IS NULL OR a.id <> $3)
		  AND `+overlapCond("a", 4, 5)+`
		LIMIT 1`, companyID, customerID, excludeAppointmentID, start, end))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment, slots []SlotRequest) error {
	q := r.conn(ctx)
	a.ID = uuid.New()
	err := q.QueryRow(ctx, `
		INSERT INTO appointment (id, company_id, customer_id, start_time, end_time, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		a.ID, a.CompanyID, a.CustomerID, a.StartTime, a.EndTime, a.Status, a.Notes).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return err
	}
	return r.insertSlots(ctx, a, slots)
}

func (r *repoPG) insertSlots(ctx context.Context, a *Appointment, slots []SlotRequest) error {
	q := r.conn(ctx)
	a.Devices = a.Devices[:0]
	for i, slot := range slots {
		var deviceID uuid.UUID
		err := q.QueryRow(ctx,
			`SELECT id FROM device WHERE company_id = $1 AND name = $2`,
			a.CompanyID, slot.DeviceName).Scan(&deviceID)
		if err != nil {
			return fmt.Errorf("resolve device %q: %w", slot.DeviceName, err)
		}

		s := DeviceSlot{
			ID:            uuid.New(),
			AppointmentID: a.ID,
			DeviceID:      deviceID,
			DeviceName:    slot.DeviceName,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			Sequence:      i + 1,
		}
		_, err = q.Exec(ctx, `
			INSERT INTO appointment_device (id, appointment_id, device_id, device_name, start_time, end_time, sequence)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.AppointmentID, s.DeviceID, s.DeviceName, s.StartTime, s.EndTime, s.Sequence)
		if err != nil {
			return err
		}
		a.Devices = append(a.Devices, s)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment, slots []SlotRequest) error {
	q := r.conn(ctx)
	tag, err := q.Exec(ctx, `
		UPDATE appointment
		SET customer_id = $3, start_time = $4, end_time = $5, status = $6, notes = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $2`,
		a.ID, a.CompanyID, a.CustomerID, a.StartTime, a.EndTime, a.Status, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if slots == nil {
		return nil
	}
	if _, err := q.Exec(ctx, `DELETE FROM appointment_device WHERE appointment_id = $1`, a.ID); err != nil {
		return err
	}
	return r.insertSlots(ctx, a, slots)
}

func (r *repoPG) UpdateStatus(ctx context.Context, companyID, id uuid.UUID, status Status) (*Appointment, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2`, id, companyID, status)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, companyID, id)
}
