package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows the appointment listing. Zero values mean "no filter".
type ListFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CustomerID *uuid.UUID
	Status     Status
	DeviceName string
	Limit      int
	Offset     int
}

// Repository is the persistence contract for appointments and their device
// slots. Conflict checks live here because they are expressed as SQL over
// the slot table; the service wraps the write paths in a serializable
// transaction so check and insert see one snapshot.
type Repository interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, companyID uuid.UUID, f ListFilter) ([]*Appointment, int, error)
	// FindByDateRange returns non-cancelled appointments inside the window,
	// ordered by start time.
	FindByDateRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*Appointment, error)
	FindUpcoming(ctx context.Context, companyID uuid.UUID, limit int) ([]*Appointment, error)
	CountByRange(ctx context.Context, companyID uuid.UUID, start, end time.Time) (int, error)

	// CheckDeviceConflicts evaluates every requested slot against device
	// capacity. It never aborts early: each slot gets its own verdict.
	CheckDeviceConflicts(ctx context.Context, companyID uuid.UUID, slots []SlotRequest, excludeAppointmentID *uuid.UUID) ([]Conflict, error)
	// CheckCustomerTimeConflict returns one non-cancelled appointment of the
	// customer overlapping [start, end), or nil when the customer is free.
	CheckCustomerTimeConflict(ctx context.Context, companyID, customerID uuid.UUID, start, end time.Time, excludeAppointmentID *uuid.UUID) (*Appointment, error)

	// Create inserts the appointment and one slot row per request, resolving
	// device names to IDs. Slot sequence follows input order, 1-indexed.
	Create(ctx context.Context, a *Appointment, slots []SlotRequest) error
	// Update rewrites the appointment scalars; when slots is non-nil the old
	// slot rows are replaced wholesale.
	Update(ctx context.Context, a *Appointment, slots []SlotRequest) error
	UpdateStatus(ctx context.Context, companyID, id uuid.UUID, status Status) (*Appointment, error)
}
