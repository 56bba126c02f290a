package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/db"
	"github.com/clinora/clinora/internal/platform/tenant"
)

// DeviceDirectory is the slice of the device registry the booking flow
// needs: existence checks before a create is attempted.
type DeviceDirectory interface {
	Exists(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
}

// CustomerDirectory resolves whether a customer is active for the company.
type CustomerDirectory interface {
	Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error)
}

type Service struct {
	repo      Repository
	devices   DeviceDirectory
	customers CustomerDirectory
	tx        db.TxRunner
}

func NewService(repo Repository, devices DeviceDirectory, customers CustomerDirectory, tx db.TxRunner) *Service {
	return &Service{repo: repo, devices: devices, customers: customers, tx: tx}
}

// CreateInput carries a new booking request.
type CreateInput struct {
	CustomerID uuid.UUID     `json:"customer_id"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Notes      *string       `json:"notes"`
	Devices    []SlotRequest `json:"devices"`
}

// UpdateInput carries a reschedule. Nil fields keep their current value;
// a non-empty Devices list replaces every slot.
type UpdateInput struct {
	CustomerID *uuid.UUID    `json:"customer_id"`
	StartTime  *time.Time    `json:"start_time"`
	EndTime    *time.Time    `json:"end_time"`
	Notes      *string       `json:"notes"`
	Status     *Status       `json:"status"`
	Devices    []SlotRequest `json:"devices"`
}

// AvailabilityInput is a read-only dry run of the booking checks.
type AvailabilityInput struct {
	Devices              []SlotRequest `json:"devices"`
	CustomerID           *uuid.UUID    `json:"customer_id"`
	ExcludeAppointmentID *uuid.UUID    `json:"exclude_appointment_id"`
}

func validateSlots(slots []SlotRequest) []string {
	var errs []string
	if len(slots) == 0 {
		errs = append(errs, "at least one device must be selected")
		return errs
	}
	for _, slot := range slots {
		if slot.DeviceName == "" {
			errs = append(errs, "device name is required")
		}
		if slot.StartTime.IsZero() || slot.EndTime.IsZero() {
			errs = append(errs, fmt.Sprintf("device %s must have start and end times", slot.DeviceName))
		}
	}
	return errs
}

func (s *Service) validateCreate(in CreateInput) error {
	var errs []string
	if in.CustomerID == uuid.Nil {
		errs = append(errs, "customer is required")
	}
	if in.StartTime.IsZero() {
		errs = append(errs, "start time is required")
	}
	if in.EndTime.IsZero() {
		errs = append(errs, "end time is required")
	}
	errs = append(errs, validateSlots(in.Devices)...)
	if len(errs) > 0 {
		return apperr.Validation("invalid appointment data", errs...)
	}
	return nil
}

// checkDevicesExist verifies every requested device is registered before any
// transaction starts, so a typo surfaces as a validation error rather than
// a conflict report.
func (s *Service) checkDevicesExist(ctx context.Context, companyID uuid.UUID, slots []SlotRequest) error {
	seen := make(map[string]bool)
	var errs []string
	for _, slot := range slots {
		if slot.DeviceName == "" || seen[slot.DeviceName] {
			continue
		}
		seen[slot.DeviceName] = true
		ok, err := s.devices.Exists(ctx, companyID, slot.DeviceName)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, fmt.Sprintf("device %q does not exist", slot.DeviceName))
		}
	}
	if len(errs) > 0 {
		return apperr.Validation("device validation failed", errs...)
	}
	return nil
}

func conflictError(conflicts []Conflict) error {
	c := conflicts[0]
	switch {
	case c.Reason == ReasonDeviceNotFound:
		return apperr.Conflict(fmt.Sprintf("device %q not found", c.DeviceName))
	case c.StartTime != nil && c.EndTime != nil:
		return apperr.Conflict(fmt.Sprintf("device conflict: %s is already booked from %s to %s",
			c.DeviceName, c.StartTime.Format(time.RFC3339), c.EndTime.Format(time.RFC3339)))
	case c.DeviceCapacity != nil && c.CurrentBookings != nil:
		return apperr.Conflict(fmt.Sprintf("device conflict: %s capacity exceeded (%d/%d)",
			c.DeviceName, *c.CurrentBookings, *c.DeviceCapacity))
	default:
		return apperr.Conflict(fmt.Sprintf("device conflict: %s is not available", c.DeviceName))
	}
}

// Create books an appointment. The conflict check and the inserts run in one
// serializable transaction, so two concurrent bookings racing for the last
// unit of a device cannot both commit.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}
	companyID := tenant.FromContext(ctx)

	if err := s.checkDevicesExist(ctx, companyID, in.Devices); err != nil {
		return nil, err
	}
	ok, err := s.customers.Exists(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("customer")
	}

	var created *Appointment
	err = s.tx(ctx, func(txCtx context.Context) error {
		conflicts, err := s.repo.CheckDeviceConflicts(txCtx, companyID, in.Devices, nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictError(conflicts)
		}

		a := &Appointment{
			CompanyID:  companyID,
			CustomerID: in.CustomerID,
			StartTime:  in.StartTime,
			EndTime:    in.EndTime,
			Status:     StatusScheduled,
			Notes:      in.Notes,
		}
		if err := s.repo.Create(txCtx, a, in.Devices); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update reschedules an appointment. When slots are supplied the conflict
// check excludes the appointment itself, so moving a booking within its own
// window never collides with its old slots.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	companyID := tenant.FromContext(ctx)

	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("invalid status",
			fmt.Sprintf("status must be one of: %v", Statuses))
	}
	if len(in.Devices) > 0 {
		if errs := validateSlots(in.Devices); len(errs) > 0 {
			return nil, apperr.Validation("invalid appointment data", errs...)
		}
		if err := s.checkDevicesExist(ctx, companyID, in.Devices); err != nil {
			return nil, err
		}
	}
	if in.CustomerID != nil {
		ok, err := s.customers.Exists(ctx, companyID, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound("customer")
		}
	}

	var updated *Appointment
	err := s.tx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, companyID, id)
		if err != nil {
			return err
		}

		if in.CustomerID != nil {
			existing.CustomerID = *in.CustomerID
		}
		if in.StartTime != nil {
			existing.StartTime = *in.StartTime
		}
		if in.EndTime != nil {
			existing.EndTime = *in.EndTime
		}
		if in.Notes != nil {
			existing.Notes = in.Notes
		}
		// Status changes obey the same lifecycle as PATCH; a reschedule
		// cannot revive a completed or cancelled appointment.
		if in.Status != nil && *in.Status != existing.Status {
			if !existing.Status.CanTransitionTo(*in.Status) {
				return apperr.Validation(
					fmt.Sprintf("cannot change a %s appointment to %s", existing.Status, *in.Status))
			}
			existing.Status = *in.Status
		}

		var slots []SlotRequest
		if len(in.Devices) > 0 {
			conflicts, err := s.repo.CheckDeviceConflicts(txCtx, companyID, in.Devices, &id)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return conflictError(conflicts)
			}
			slots = in.Devices
		}

		if err := s.repo.Update(txCtx, existing, slots); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CheckAvailability runs the booking checks without writing anything. The
// customer check uses the overall envelope of the requested slots: earliest
// start to latest end.
func (s *Service) CheckAvailability(ctx context.Context, in AvailabilityInput) (*Availability, error) {
	if errs := validateSlots(in.Devices); len(errs) > 0 {
		return nil, apperr.Validation("invalid availability request", errs...)
	}
	companyID := tenant.FromContext(ctx)

	conflicts, err := s.repo.CheckDeviceConflicts(ctx, companyID, in.Devices, in.ExcludeAppointmentID)
	if err != nil {
		return nil, err
	}

	if in.CustomerID != nil {
		start, end := envelope(in.Devices)
		hit, err := s.repo.CheckCustomerTimeConflict(ctx, companyID, *in.CustomerID, start, end, in.ExcludeAppointmentID)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			hitID := hit.ID
			hitStart, hitEnd := hit.StartTime, hit.EndTime
			conflicts = append(conflicts, Conflict{
				Reason:                   ReasonCustomerOverlap,
				ConflictingAppointmentID: &hitID,
				CustomerName:             hit.CustomerName,
				StartTime:                &hitStart,
				EndTime:                  &hitEnd,
			})
		}
	}

	if conflicts == nil {
		conflicts = []Conflict{}
	}
	return &Availability{IsAvailable: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// envelope returns the earliest start and latest end across the slots.
func envelope(slots []SlotRequest) (time.Time, time.Time) {
	start, end := slots[0].StartTime, slots[0].EndTime
	for _, s := range slots[1:] {
		if s.StartTime.Before(start) {
			start = s.StartTime
		}
		if s.EndTime.After(end) {
			end = s.EndTime
		}
	}
	return start, end
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, tenant.FromContext(ctx), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Appointment, int, error) {
	return s.repo.List(ctx, tenant.FromContext(ctx), f)
}

// Range returns non-cancelled appointments between start and end, for the
// calendar view.
func (s *Service) Range(ctx context.Context, start, end time.Time) ([]*Appointment, error) {
	return s.repo.FindByDateRange(ctx, tenant.FromContext(ctx), start, end)
}

// Today returns today's non-cancelled appointments, local midnight to
// midnight.
func (s *Service) Today(ctx context.Context) ([]*Appointment, error) {
	start, end := dayBounds(time.Now())
	return s.repo.FindByDateRange(ctx, tenant.FromContext(ctx), start, end)
}

func (s *Service) Upcoming(ctx context.Context, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.FindUpcoming(ctx, tenant.FromContext(ctx), limit)
}

// Stats returns the dashboard snapshot: today's booking count plus the next
// few scheduled appointments.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	companyID := tenant.FromContext(ctx)
	start, end := dayBounds(time.Now())
	count, err := s.repo.CountByRange(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.FindUpcoming(ctx, companyID, 5)
	if err != nil {
		return nil, err
	}
	if upcoming == nil {
		upcoming = []*Appointment{}
	}
	return &Stats{TodayCount: count, Upcoming: upcoming}, nil
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// UpdateStatus applies a lifecycle transition. Setting the current status
// again is a no-op; anything the state machine forbids is a validation
// error naming the current state.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid status",
			fmt.Sprintf("status must be one of: %v", Statuses))
	}
	companyID := tenant.FromContext(ctx)

	existing, err := s.repo.GetByID(ctx, companyID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	if existing.Status == status {
		return existing, nil
	}
	if !existing.Status.CanTransitionTo(status) {
		return nil, apperr.Validation(
			fmt.Sprintf("cannot change a %s appointment to %s", existing.Status, status))
	}
	return s.setStatus(ctx, companyID, id, status)
}

// Cancel is a soft status change; the slot rows stay but stop counting
// against device capacity. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	companyID := tenant.FromContext(ctx)
	existing, err := s.repo.GetByID(ctx, companyID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case StatusCancelled:
		return existing, nil
	case StatusCompleted:
		return nil, apperr.Validation("cannot cancel a completed appointment")
	}
	return s.setStatus(ctx, companyID, id, StatusCancelled)
}

// Complete marks the appointment done.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	companyID := tenant.FromContext(ctx)
	existing, err := s.repo.GetByID(ctx, companyID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case StatusCompleted:
		return nil, apperr.Validation("appointment is already completed")
	case StatusCancelled:
		return nil, apperr.Validation("cannot complete a cancelled appointment")
	}
	return s.setStatus(ctx, companyID, id, StatusCompleted)
}

func (s *Service) setStatus(ctx context.Context, companyID, id uuid.UUID, status Status) (*Appointment, error) {
	a, err := s.repo.UpdateStatus(ctx, companyID, id, status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
