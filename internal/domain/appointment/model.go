package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status, for validation messages.
var Statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions encodes the lifecycle: completed and cancelled are terminal.
var transitions = map[Status]map[Status]bool{
	StatusScheduled:  {StatusInProgress: true, StatusCompleted: true, StatusCancelled: true},
	StatusInProgress: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s][next]
}

// Appointment maps to the appointment table. Customer name and phone are
// joined in for display; they are never written through this struct.
type Appointment struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	CompanyID     uuid.UUID    `db:"company_id" json:"-"`
	CustomerID    uuid.UUID    `db:"customer_id" json:"customer_id"`
	CustomerName  string       `json:"customer_name,omitempty"`
	CustomerPhone string       `json:"customer_phone,omitempty"`
	StartTime     time.Time    `db:"start_time" json:"start_time"`
	EndTime       time.Time    `db:"end_time" json:"end_time"`
	Status        Status       `db:"status" json:"status"`
	Notes         *string      `db:"notes" json:"notes,omitempty"`
	Devices       []DeviceSlot `json:"devices,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// DeviceSlot maps to the appointment_device table: one device held for one
// time window within an appointment. The device name is denormalized so
// conflict queries avoid a join against the registry.
type DeviceSlot struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"-"`
	DeviceID      uuid.UUID `db:"device_id" json:"device_id"`
	DeviceName    string    `db:"device_name" json:"device_name"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
	Sequence      int       `db:"sequence" json:"sequence"`
}

// SlotRequest is one requested device booking inside a create, update or
// availability call.
type SlotRequest struct {
	DeviceName string    `json:"device_name"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// Conflict reasons.
const (
	ReasonCapacityExceeded = "capacity_exceeded"
	ReasonDeviceNotFound   = "device_not_found"
	ReasonCustomerOverlap  = "customer_overlap"
)

// Conflict describes why a requested slot cannot be booked. For capacity
// conflicts one colliding booking is included as an example; device_not_found
// carries only the name.
type Conflict struct {
	DeviceName               string     `json:"device_name"`
	Reason                   string     `json:"reason"`
	ConflictingAppointmentID *uuid.UUID `json:"conflicting_appointment_id,omitempty"`
	CustomerName             string     `json:"customer_name,omitempty"`
	StartTime                *time.Time `json:"start_time,omitempty"`
	EndTime                  *time.Time `json:"end_time,omitempty"`
	DeviceCapacity           *int       `json:"device_capacity,omitempty"`
	CurrentBookings          *int       `json:"current_bookings,omitempty"`
}

// Availability is the outcome of a read-only booking dry run.
type Availability struct {
	IsAvailable bool       `json:"is_available"`
	Conflicts   []Conflict `json:"conflicts"`
}

// Stats is the appointment snapshot shown on the dashboard.
type Stats struct {
	TodayCount int            `json:"today_count"`
	Upcoming   []*Appointment `json:"upcoming_appointments"`
}
